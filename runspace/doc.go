// Package runspace implements the PSRP Runspace Pool and Pipeline state
// machines for both the client and server role, per spec.md sections 4.2
// and 4.3. RunspacePool and Pipeline live in one package (not two) because
// the Python original they are ported from defines both together in each
// of its base/client/server modules: a Pipeline holds a reference to its
// owning pool, and the pool's pipeline table holds Pipeline values, an
// unavoidable mutual reference once both roles live in a single binary.
//
// Every exported method is synchronous and non-blocking, matching the
// sans-I/O contract: callers push bytes in with ReceiveData, pull bytes
// out with DataToSend, and drain decoded protocol events with NextEvent.
// Nothing here spawns a goroutine, blocks on a channel, or touches a
// clock; the caller owns all scheduling.
package runspace
