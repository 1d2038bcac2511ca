// Package psrpcore is a sans-I/O implementation of the PowerShell Remoting
// Protocol (PSRP, MS-PSRP): it builds and parses PSRP messages and drives
// the RunspacePool and Pipeline state machines without performing any
// network I/O itself. Callers own the transport — WinRM/WSMan, SSH, a named
// pipe, whatever — and drive each state machine with three calls:
// DataToSend, ReceiveData, and NextEvent.
//
// # Architecture
//
// The library is organized bottom-up, each package depending only on the
// ones below it:
//
//	┌─────────────────────────────────────────────────────────┐
//	│  runspace/      RunspacePool + Pipeline state machines    │
//	├─────────────────────────────────────────────────────────┤
//	│  command/       Pipeline invocation + stream-merge matrix │
//	├─────────────────────────────────────────────────────────┤
//	│  events/        Typed incoming-message events             │
//	├─────────────────────────────────────────────────────────┤
//	│  messages/      Fragmentation, reassembly, envelopes       │
//	├─────────────────────────────────────────────────────────┤
//	│  crypto/        Session key exchange, AES encryption       │
//	├─────────────────────────────────────────────────────────┤
//	│  serialization/ CLIXML object graph encode/decode         │
//	└─────────────────────────────────────────────────────────┘
//
// clixmlshell sits alongside these as a standalone helper: it unwraps the
// `#< CLIXML` multi-stream shell format PowerShell emits with
// `-OutputFormat xml`, independent of the live RunspacePool protocol.
//
// # Quick start (client side)
//
//	pool := runspace.NewClientRunspacePool(runspace.Config{MaxRunspaces: 1})
//	if err := pool.Open(); err != nil {
//	    log.Fatal(err)
//	}
//	for {
//	    payload, ok, err := pool.DataToSend(8192)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if !ok {
//	        break
//	    }
//	    transport.Send(payload.Bytes)
//	}
//	pool.ReceiveData(transport.Recv())
//	for {
//	    ev, err := pool.NextEvent()
//	    if err != nil || ev == nil {
//	        break
//	    }
//	    handle(ev)
//	}
package psrpcore
