// Package scene defines the boundary between Rex and a native object tree.
//
// Rex never draws anything. It creates, configures, parents and destroys
// objects of a host scene graph through the Graph interface and treats every
// object as an opaque Handle.
package scene

// Handle is an opaque reference to a native object.
type Handle interface {
	// Name returns the object's name, used for lookups by name.
	Name() string

	// ClassName returns the native type the object was created as.
	ClassName() string
}

// Graph is the capability set Rex needs from a native scene graph.
type Graph interface {
	// Create constructs a new, unparented object of the given class.
	// It fails when class is not a constructible type.
	Create(class string) (Handle, error)

	// SetProperty sets one property. A failure affects only that property.
	SetProperty(h Handle, name string, value any) error

	// Children returns the direct children of h in order.
	Children(h Handle) []Handle

	// FindChild returns the first direct child of h with the given name.
	FindChild(h Handle, name string) (Handle, bool)

	// Parent returns the parent of h, or nil.
	Parent(h Handle) Handle

	// SetParent moves h under parent. A nil parent detaches h.
	SetParent(h Handle, parent Handle) error

	// Destroy removes h and every native descendant.
	Destroy(h Handle)

	// OnRemoved registers a one-shot callback that runs when h leaves the
	// tree, either detached or destroyed.
	OnRemoved(h Handle, fn func())

	// Connect subscribes fn to a native signal of h and returns a function
	// that disconnects it.
	Connect(h Handle, signal string, fn func(args ...any)) (disconnect func(), err error)
}

// Orderer is implemented by graphs that can place a child at a position
// among its siblings.
type Orderer interface {
	MoveChild(parent, child Handle, index int) error
}

// IndexOf returns the position of child among the children of parent, or -1.
func IndexOf(g Graph, parent, child Handle) int {
	for i, c := range g.Children(parent) {
		if c == child {
			return i
		}
	}
	return -1
}

// Names returns the names of the children of h.
func Names(g Graph, h Handle) []string {
	children := g.Children(h)
	out := make([]string, len(children))
	for i, c := range children {
		out[i] = c.Name()
	}
	return out
}
