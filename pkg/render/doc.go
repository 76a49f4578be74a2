// Package render mounts element trees into a scene graph.
//
// A Renderer wraps a reconcile.Reconciler and adds the entry points an
// application uses: Mount for a tree it will unmount later, Render for a
// one-shot build, and NewRoot for a reactive root that re-runs a render
// function and reconciles each result against the previous tree.
//
// # Basic Usage
//
//	g := memory.New()
//	r := render.New(g)
//	m, err := r.Mount(ctx, vdom.El("Frame", vdom.Props{"Name": "App"}), screen)
//	if err != nil {
//	    return err
//	}
//	defer m.Unmount()
//
// # Reactive Roots
//
// A Root re-renders when Update is called. Watch wires Update to sources;
// changes arriving in the same scheduler pass result in a single update:
//
//	count := reactive.NewState(0)
//	root := r.NewRoot(func() *vdom.Element {
//	    return vdom.El("TextLabel", vdom.Props{"Text": fmt.Sprint(count.Get())})
//	}, screen)
//	root.AutoTrack()
//	if err := root.Update(ctx); err != nil {
//	    return err
//	}
//	defer root.Cleanup()
//
// # Tracing
//
// Mount, Render, Update and Unmount each open a span on the tracer named by
// WithTracerName (default "rex") from the global OpenTelemetry provider.
// Their durations are observed in rex_render_duration_seconds.
package render
