// Package errors provides structured, coded errors for Rex.
//
// Every failure the engine can surface has a registered code (e.g., "R100")
// that maps to:
//   - A category (state, property, reconcile, build, render, config, cli)
//   - A short message describing the error
//   - A longer explanation
//
// Fatal errors (an element that cannot be built) are returned to the caller.
// Everything else is reported as a diagnostic through internal/diag and the
// operation continues with a safe fallback.
//
// # Usage
//
//	err := errors.New(errors.CodeWrapNotFound).
//	    WithDetail(`no child named "Title" under "Root"`)
//
//	errors.SetColor(false)
//	fmt.Print(err.Format())
//	// Output:
//	// error R102 [build]: Wrap target not found
//	//   no child named "Title" under "Root"
//	//   ...
//
// Errors compare by code, so exported sentinels work with errors.Is:
//
//	if errors.Is(err, reconcile.ErrWrapNotFound) { ... }
package errors
