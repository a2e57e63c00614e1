// Package server serves live device telemetry over HTTP and WebSocket.
//
// The Hub is a bridge.Sink: every event the bridge publishes is encoded once
// as JSON and pushed to each connected WebSocket client. A client that cannot
// keep up is disconnected rather than allowed to stall the device poll loop.
//
// Endpoints:
//
//	GET /ws       WebSocket feed, one JSON event per text message
//	GET /healthz  200 "ok"
//	GET /stats    JSON counters of the hub and of the caller's stats function
//
// Example:
//
//	hub := server.NewHub()
//	srv := server.New(server.Config{Addr: ":8080"}, hub, func() any { return b.Stats() })
//	go srv.Run(ctx)
//	b := bridge.New("ins", bridge.MultiSink{natsSink, hub})
//
// Clients are pinged every pingPeriod; a client that does not answer within
// pongWait is dropped.
package server
