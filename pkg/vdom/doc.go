// Package vdom provides the virtual element model for Rex.
//
// An Element describes one desired native object: its class, its property
// bag, its children and an optional key. Elements are plain data. Property
// values and children may be reactive sources; the binder and the reconciler
// resolve them.
//
// # Element API
//
// Elements are created with El and friends:
//
//	El("Frame", Props{"Size": scene.FromScale(1, 1)},
//	    El("TextLabel", Props{"Text": count}),
//	    Each(items, func(item any, i int) *Element {
//	        return El("TextLabel", Props{"Text": item}).WithKey(item.(string))
//	    }),
//	)
//
// # Children
//
// Children are one of four shapes, resolved once by ResolveChildren:
// static (elements only), a children stream (Each), a reactive scalar (any
// other source whose value normalizes to elements) or mixed (a list holding
// both elements and sources, re-expanded whenever one of its sources
// changes).
//
// # Keys
//
// BuildKeyMap assigns every element of a child list a unique key: the
// explicit key when set, "auto_<index>" otherwise. Duplicates are renamed
// "<key>_duplicate_<n>" and reported.
package vdom
