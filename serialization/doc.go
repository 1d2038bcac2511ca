// Package serialization implements the typed-object model and CLIXML codec
// used by the PowerShell Remoting Protocol.
//
// A [PSObject] is the single dynamic representation for every value that
// crosses the wire: primitive leaves (strings, integers, dates, secure
// strings, ...) carry their value directly, compound values carry an
// ordered type-name stack plus adapted and extended property sets, and
// container values (lists, stacks, queues, dictionaries) carry a
// [Collection]. The encoder and decoder both maintain a RefId table so that
// cyclic object graphs and shared subgraphs round-trip through CLIXML
// without duplication.
//
// Rehydration is driven by a [Registry]: a type-name stack that matches a
// registered, rehydratable .NET type name is handed to that type's
// constructor; anything else comes back as a generic [PSObject] whose type
// names are all prefixed "Deserialized.".
package serialization
