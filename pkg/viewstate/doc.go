// Package viewstate persists the "last selected" opening, closing and
// profile of the compose and profile views without writing on every change.
//
// A [Patch] names the fields it changes: a value sets a field, nil clears it,
// and a field missing from the patch is left as it is. Backends merge
// patches into what they hold and never replace the whole state.
//
// A [Synchronizer] debounces patches. Each [Synchronizer.Schedule] restarts
// a quiet period (300ms by default) and only one write is issued when the
// period ends. By default the last patch of a burst wins; [WithCoalesce]
// merges the patches of a burst instead.
//
//	sync := viewstate.NewSynchronizer(store, viewstate.WithLogger(log))
//	defer sync.Close(ctx)
//
//	sync.Schedule(viewstate.Patch{}.Set(viewstate.FieldOpening, "Hello"))
//
// A failed write is logged and not retried; the next Schedule carries the
// values again.
package viewstate
