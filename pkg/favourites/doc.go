// Package favourites keeps a set of favourite item identifiers in memory and
// in a store.
//
// Stored payloads come in two shapes. The canonical one is a JSON array of
// identifiers. Older data files hold a JSON object mapping each identifier to
// a flag; keys with a truthy value count as favourites. [Decode] accepts both
// and anything else decodes to an empty set. Only the array shape is written.
//
// A [Reconciler] is loaded once per session and toggled by user actions:
//
//	r := favourites.NewReconciler(store, favourites.WithLogger(log))
//	r.Load(ctx)
//	on, err := r.Toggle(ctx, "Weekly report")
package favourites
