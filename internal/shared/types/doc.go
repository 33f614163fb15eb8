// Package types provides data structures shared between the runtime and its
// ops API.
//
// Instance and Stats describe running applications. CatalogEntry and
// ScanReport describe the install-root catalog. The request types are the
// bodies accepted by the ops endpoints.
package types
