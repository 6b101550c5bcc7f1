// Package transport moves encoded audio packets over UDP datagrams.
//
// It is the datagram collaborator the wire format addresses: one
// datagram carries exactly one encoded packet, so framing boundaries
// come for free and the protocol needs no length prefix. Nothing here
// retransmits, reorders or paces beyond a fixed send interval; loss
// handling belongs to the application.
//
// The Sender owns a wire.Sequencer and is the single producer the
// sequencer's contract requires: Stream drives it from one
// ticker-driven loop. The Receiver delivers decoded packets and decode
// errors through callbacks invoked from its read goroutine.
package transport
