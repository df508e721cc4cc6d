// Package mbim implements the message-handling core of the Mobile
// Broadband Interface Model (MBIM) control protocol: construction,
// parsing, and inspection of MBIM control messages in their canonical
// little-endian wire layout, plus the fragmentation protocol that
// splits oversize messages on transmit and reassembles them on
// receive.
//
// The package does not do any transport I/O, does not decode
// per-service (CID/UUID) payloads, and does not track transactions;
// those are the job of layers built on top (see usbtransport, stream,
// and debugserver in this module).
package mbim
