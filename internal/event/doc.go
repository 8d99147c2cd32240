/*
Package event provides the pub/sub bus used to push notifications from the
backend to the presentation layer.

Publishers emit an Event; typed subscribers registered with Subscribe or
SubscribeAll are invoked directly. Every event is also mirrored as JSON onto
the watermill GoChannel topic "buildtrack.events", which the HTTP server
consumes through Stream to feed its server-sent events endpoint.

Event types:
  - database.switched: the storage directory changed; data carries the new path
  - server.connected: greeting written to every new SSE stream

A Bus is created once at startup and handed to the components that need it.
There is no package-level bus.

Usage:

	bus := event.NewBus()
	defer bus.Close()

	unsub := bus.Subscribe(event.DatabaseSwitched, func(e event.Event) {
		data := e.Data.(event.DatabaseSwitchedData)
		log.Info().Str("path", data.Path).Msg("database switched")
	})
	defer unsub()
*/
package event
