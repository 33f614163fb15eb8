// Package bridge mediates calls from hosted web content to native host operations.
//
// Each application instance owns one Bridge, bound to its Manifest and to a
// HostAdapter. An inbound Message names a capability and carries ordered
// string parameters. Dispatch runs every message through the same steps:
//
//  1. look up the capability in the catalogue
//  2. check the manifest's trust level against the capability's minimum
//  3. validate parameter arity and shape
//  4. invoke the handler; read-only queries fall back to a safe default when
//     the host fails, mutating operations report a host failure
//  5. return the payload as text
//
// Handle wraps Dispatch for hosted content: failures come back as an opaque
// Response with no diagnostic detail. Denials and host failures are logged on
// the runtime side only.
//
// handleBrowserControlMessage is a second dispatch layer. Its first parameter
// selects an inner capability which goes through the same trust and shape
// checks. Unknown inner messages are reported as unhandled rather than failed.
package bridge
