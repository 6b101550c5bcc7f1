// Package server provides the AirCast monitor: a small plaintext HTTP
// surface for watching discovery and stream activity on the LAN.
//
// Endpoints:
//
//	GET /status  JSON snapshot: scanning flag, discovered receivers,
//	             stream transfer counters
//	GET /events  WebSocket upgrade; each discovery event is pushed to
//	             connected clients as one JSON text frame
//
// The monitor holds no discovery state of its own: it reads snapshots
// from a discovery.Browser and counters from a transport.Receiver, and
// relays browser events it is subscribed to. Slow WebSocket clients are
// disconnected rather than allowed to stall the event stream.
//
// The monitor is a LAN diagnostic surface and deliberately serves
// plaintext; do not expose it beyond the local segment.
package server
