// Package bridge forwards device telemetry to other systems.
//
// A Bridge registers itself as the catch-all log consumer of an ecom.Handle.
// Every unsolicited frame becomes an Event carrying a fresh id, the raw payload
// and, when a decoder exists, the decoded record. Events are handed to a Sink:
//
//   - NATSSink publishes each event on <prefix>.<device>.<class>.<message>
//   - RedisSink keeps the latest event per message in the hash
//     <prefix>:<device>:latest with an expiry
//   - the server package's Hub pushes events to WebSocket clients
//
// Several sinks are combined with MultiSink. Events are encoded as JSON or
// CBOR.
//
// The Handle is not safe for concurrent use, so Run polls it from the calling
// goroutine and publishing happens inside the poll.
package bridge
