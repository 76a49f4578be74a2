package reactive

// Source is the minimal reactive capability: a readable value that reports
// changes. Foreign reactive types only need to implement Source to be bound
// to properties and children.
type Source interface {
	// Current returns the current value. Cells created by this package also
	// register themselves with an active tracking scope.
	Current() any

	// Watch registers fn to be called after every change and returns a
	// function that removes it.
	Watch(fn func(newVal, oldVal any)) (unwatch func())
}

// Writable is a Source that can also be written through a type-erased API.
type Writable interface {
	Source

	// Assign stores v. It fails when v does not fit the cell's type.
	Assign(v any) error

	// Modify stores fn(current).
	Modify(fn func(any) any) error
}

// Derived marks a read-only computed cell.
type Derived interface {
	Writable

	// IsComputed reports that writes are rejected.
	IsComputed() bool
}

// Bundle is the shape of an async value: data, loading and error cells plus
// a reload trigger.
type Bundle interface {
	DataSource() Source
	LoadingSource() Source
	ErrorSource() Source
	Reload()
}

// ChildrenStream marks a Source whose values are element lists.
type ChildrenStream interface {
	Source

	// ChildrenStream is a marker method.
	ChildrenStream()
}
