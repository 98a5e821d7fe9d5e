// Package letterpress composes outbound messages from reusable fragments
// and keeps a user's favourites and view selections in a backend store.
//
// Service is the facade used by the HTTP API and the CLI:
//
//	svc := letterpress.New(letterpress.NewBackend(store, resolver),
//		letterpress.WithLogger(log),
//	)
//	if err := svc.Start(ctx); err != nil {
//		return err
//	}
//	defer svc.Close(context.Background())
//
//	doc := svc.Compose(ctx, letterpress.Draft{
//		Opening:   "Hello,",
//		Recipient: "Alex",
//		Body:      "See attached.",
//		Closing:   "Thanks",
//	})
//
// Composition is synchronous and never fails. Favourite toggles and view
// state updates return immediately and are persisted in the background:
// toggles on every change, view state after a quiet period.
package letterpress
