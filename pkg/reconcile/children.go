package reconcile

import (
	"log/slog"
	"strings"

	"github.com/vango-dev/rex/internal/diag"
	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/metrics"
	"github.com/vango-dev/rex/pkg/scene"
	"github.com/vango-dev/rex/pkg/vdom"
)

// ReconcileChildren diffs the child list prev against next under parent and
// returns the list that is now rendered.
//
// An element of next is matched to the same element of prev when present,
// otherwise to the element of prev with the same key. Matched elements are
// reconciled, unmatched ones instantiated, and elements of prev left
// unmatched are destroyed. Finally the native children are moved into the
// order of next, unless next holds a layout-affecting object.
//
// A fatal error stops the update pass. The returned list then holds every
// element that is still alive so a later call can pick up from it.
func (r *Reconciler) ReconcileChildren(parent scene.Handle, prev, next []*vdom.Element) ([]*vdom.Element, error) {
	next = vdom.Normalize(next)
	oldKeys := vdom.BuildKeyMap(prev)
	newKeys := vdom.BuildKeyMap(next)

	inPrev := make(map[*vdom.Element]bool, len(prev))
	for _, el := range prev {
		inPrev[el] = true
	}
	inNext := make(map[*vdom.Element]bool, len(next))
	for _, el := range next {
		inNext[el] = true
	}

	used := make(map[*vdom.Element]bool, len(prev))
	for i, el := range next {
		var old *vdom.Element
		switch {
		case inPrev[el]:
			old = el
		default:
			if o, ok := oldKeys.Elements[newKeys.Keys[i]]; ok && !inNext[o] && !used[o] {
				old = o
			}
		}
		if old != nil {
			used[old] = true
		}

		if _, err := r.Reconcile(old, el, parent); err != nil {
			return r.survivors(prev, next[:i], used), err
		}
	}

	for _, key := range oldKeys.Keys {
		if old := oldKeys.Elements[key]; !used[old] {
			r.Destroy(old)
		}
	}

	if r.reorder && !r.hasLayout(next) {
		r.reorderChildren(parent, next)
	}
	return next, nil
}

// survivors returns the processed part of next plus every element of prev
// that was not reached yet.
func (r *Reconciler) survivors(prev, done []*vdom.Element, used map[*vdom.Element]bool) []*vdom.Element {
	out := make([]*vdom.Element, 0, len(prev)+len(done))
	for _, el := range done {
		if r.live(el) {
			out = append(out, el)
		}
	}
	for _, el := range prev {
		if !used[el] && r.live(el) {
			out = append(out, el)
		}
	}
	return out
}

// hasLayout reports whether list holds a layout-affecting object.
func (r *Reconciler) hasLayout(list []*vdom.Element) bool {
	for _, el := range list {
		class := el.Tag
		if el.Handle != nil {
			class = el.Handle.ClassName()
		}
		for _, frag := range r.layout {
			if frag != "" && strings.Contains(class, frag) {
				return true
			}
		}
	}
	return false
}

// reorderChildren moves the handles of list into list order. They are
// packed from the position of the first one; native children not in list
// keep their relative order after them. Handles already in place are not
// touched.
func (r *Reconciler) reorderChildren(parent scene.Handle, list []*vdom.Element) {
	orderer, ok := r.graph.(scene.Orderer)
	if !ok || parent == nil {
		return
	}

	want := make([]scene.Handle, 0, len(list))
	wanted := make(map[scene.Handle]bool, len(list))
	for _, el := range list {
		if el.Handle != nil && !wanted[el.Handle] {
			want = append(want, el.Handle)
			wanted[el.Handle] = true
		}
	}
	if len(want) < 2 {
		return
	}

	children := r.graph.Children(parent)
	base := -1
	var current []scene.Handle
	for i, c := range children {
		if wanted[c] {
			if base < 0 {
				base = i
			}
			current = append(current, c)
		}
	}
	if base < 0 || inOrder(current, want) {
		return
	}

	for k, h := range want {
		children = r.graph.Children(parent)
		target := base + k
		if target < len(children) && children[target] == h {
			continue
		}
		if err := orderer.MoveChild(parent, h, target); err != nil {
			diag.Report(errors.CodeChildrenUpdate, "",
				slog.String("container", describeHandle(parent)),
				slog.String("error", err.Error()))
			return
		}
		metrics.RecordMove()
	}
}

func inOrder(current, want []scene.Handle) bool {
	if len(current) != len(want) {
		return false
	}
	for i := range current {
		if current[i] != want[i] {
			return false
		}
	}
	return true
}
