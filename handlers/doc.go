// Package handlers implements the JSON API of the letterpress server.
//
// Each handler receives its dependencies through its constructor and
// declares its routes in Routes:
//
//	app := internal.New(internal.WithHandlers(
//	    handlers.NewComposeHandler(svc, lib, m),
//	    handlers.NewFavouritesHandler(svc),
//	    handlers.NewViewStateHandler(svc),
//	    handlers.NewLibraryHandler(svc, lib),
//	    handlers.NewNoticesHandler(center),
//	))
package handlers
