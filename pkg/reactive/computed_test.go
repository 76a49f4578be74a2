package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/rex/internal/diag/diagtest"
	"github.com/vango-dev/rex/internal/errors"
)

func TestComputedSeedsEagerly(t *testing.T) {
	useQueue(t)
	runs := 0
	a := NewState(2)
	c := NewComputed(func() int {
		runs++
		return a.Get() * 10
	}, []Source{a})
	defer c.Destroy()

	assert.Equal(t, 1, runs)
	assert.Equal(t, 20, c.Get())
}

func TestComputedRecomputesOnDependencyChange(t *testing.T) {
	q := useQueue(t)
	first := NewState("Ada")
	last := NewState("Lovelace")
	full := NewComputed(func() string {
		return first.Get() + " " + last.Get()
	}, []Source{first, last})
	defer full.Destroy()

	var changes []string
	full.OnChange(func(n, _ string) { changes = append(changes, n) })

	last.Set("Byron")
	q.Flush()

	assert.Equal(t, "Ada Byron", full.Get())
	assert.Equal(t, []string{"Ada Byron"}, changes)
}

func TestComputedMemoSkipsUnchangedSnapshot(t *testing.T) {
	q := useQueue(t)
	runs := 0
	a := NewState(1)
	c := NewComputed(func() int {
		runs++
		return a.Get() + 1
	}, []Source{a})
	defer c.Destroy()

	a.Set(5)
	a.Set(1)
	q.Flush()

	assert.Equal(t, 1, runs, "snapshot matches the cached one")
	assert.Equal(t, 2, c.Get())
}

func TestComputedIsReadOnly(t *testing.T) {
	q := useQueue(t)
	rec := diagtest.Capture(t)
	a := NewState(1)
	c := NewComputed(func() int { return a.Get() }, []Source{a})
	defer c.Destroy()

	c.Set(99)
	c.Update(func(int) int { return 100 })
	q.Flush()

	assert.Equal(t, 1, c.Get())
	assert.Equal(t, 2, rec.Count(errors.CodeReadOnly))

	err := c.Assign(5)
	require.Error(t, err)
	assert.Equal(t, errors.CodeReadOnly, errors.CodeOf(err))
	assert.True(t, c.IsComputed())
}

func TestComputedDestroyEvictsMemo(t *testing.T) {
	q := useQueue(t)
	before := MemoEntries()
	runs := 0
	a := NewState(1)
	c := NewComputed(func() int {
		runs++
		return a.Get()
	}, []Source{a}, MemoKey("test.destroy"))

	assert.Equal(t, before+1, MemoEntries())
	assert.Equal(t, "test.destroy", c.Key())

	c.Destroy()
	c.Destroy()
	assert.Equal(t, before, MemoEntries())
	assert.Equal(t, 0, a.Listeners())

	a.Set(2)
	q.Flush()
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, c.Peek())
}

func TestComputedDefaultKey(t *testing.T) {
	useQueue(t)
	c := NewComputed(func() int { return 1 }, nil)
	defer c.Destroy()
	assert.Contains(t, c.Key(), "computed_")
}

func TestComputedChain(t *testing.T) {
	q := useQueue(t)
	n := NewState(1)
	double := NewComputed(func() int { return n.Get() * 2 }, []Source{n})
	defer double.Destroy()
	quad := NewComputed(func() int { return double.Get() * 2 }, []Source{double})
	defer quad.Destroy()

	n.Set(3)
	q.Flush()

	assert.Equal(t, 6, double.Get())
	assert.Equal(t, 12, quad.Get())
}

func TestAutoComputedTracksFirstRun(t *testing.T) {
	q := useQueue(t)
	a := NewState(2)
	b := NewState(3)
	sum := NewAutoComputed(func() int {
		return a.Get() + b.Get()
	})
	defer sum.Destroy()

	require.Len(t, sum.Deps(), 2)
	assert.Equal(t, 5, sum.Get())

	b.Set(10)
	q.Flush()
	assert.Equal(t, 12, sum.Get())
}

func TestComputedCycleIsBounded(t *testing.T) {
	q := useQueue(t)
	rec := diagtest.Capture(t)
	SetMaxPropagationDepth(10)
	t.Cleanup(func() { SetMaxPropagationDepth(DefaultMaxPropagationDepth) })

	n := NewState(0)
	next := NewComputed(func() int { return n.Get() + 1 }, []Source{n})
	defer next.Destroy()
	next.OnChange(func(v, _ int) { n.Set(v) })

	n.Set(1)
	q.Flush()

	assert.Equal(t, 1, rec.Count(errors.CodeCircular))
	assert.Equal(t, 0, q.Len())
}

func TestComputedAsSource(t *testing.T) {
	q := useQueue(t)
	a := NewState(1)
	c := NewComputed(func() int { return a.Get() }, []Source{a})
	defer c.Destroy()

	var got []any
	unwatch := c.Watch(func(n, _ any) { got = append(got, n) })
	a.Set(7)
	q.Flush()
	unwatch()

	assert.Equal(t, 7, c.Current())
	assert.Equal(t, []any{7}, got)
}
