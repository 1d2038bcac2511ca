// Package messages implements the PSRP framing codec: the fragment header
// and message envelope wire formats, the fragmentation/reassembly
// algorithm that packs queued messages into size-bounded payloads, and the
// transport-framing helpers used by connection-oriented carriers (named
// pipes, HVSocket) that wrap fragment payloads in a `<Data>`/`<Command>`
// element shell.
//
// Nothing in this package performs I/O. [SendQueue.Pack] and [Reassembler]
// operate purely on byte slices the caller supplies and returns; the caller
// decides where those bytes come from or go.
package messages
