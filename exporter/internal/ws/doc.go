// Package ws streams bound schedules to WebSocket clients.
//
// New(engine) creates a Hub. Hub.ServeHTTP upgrades the connection and sends
// the current catalogue immediately; Hub.Notify queues a broadcast to every
// client, which csexporter calls after each config reload. Hub.Run(ctx)
// delivers queued broadcasts until ctx is cancelled, then closes all
// connections.
//
// Message format sent to clients:
//
//	{
//	  "event": "catalogue",
//	  "data":  [ /* same schema as GET /api/v1/bounds */ ]
//	}
//
// The upgrader accepts all origins. The endpoint is mounted at /ws/stream.
package ws
