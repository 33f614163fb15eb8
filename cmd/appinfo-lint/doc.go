// Command appinfo-lint validates application descriptors offline.
//
// It uses the same parser as the runtime, so a descriptor that passes here
// loads into the catalog unchanged.
//
// Usage:
//
//	appinfo-lint validate apps/*/appinfo.json
//	appinfo-lint show -v apps/home/appinfo.yaml
//
// validate exits non-zero when any descriptor is fatal (unreadable,
// undecodable, or missing its id).
package main
