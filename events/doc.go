// Package events derives typed PSRP events from incoming messages. A
// compile-time table ([Create]) maps each [messages.PSRPMessageType] to a
// constructor producing the matching event type, replacing a reflective
// "dispatch by name" pattern with an ordinary Go switch.
//
// Every event wraps the generic [serialization.PSObject] produced by the
// CLIXML decoder (rehydrated by a registry where one applies) and exposes
// typed accessors that pull the well-known adapted properties out of it.
// This keeps the event package free of a dependency on the runspace
// package, which builds the [serialization.Registry] used for decoding;
// message payloads themselves stay generic PSObjects.
package events
