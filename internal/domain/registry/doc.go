// Package registry catalogs the applications installed under an install root.
//
// Every directory below the root may carry one descriptor named
// appinfo.json, appinfo.yaml, appinfo.yml or appinfo.toml. A scan walks the
// root, parses each descriptor and indexes the result by application id.
//
// Components:
//   - Catalog: id index, bounded manifest cache and lookups
//   - Scan: install-root walk producing a ScanReport
//
// A descriptor that fails to parse is reported and skipped; it never aborts
// the scan. When two descriptors declare the same id the one with the
// lexically smaller path is kept and the other is reported as a duplicate.
//
// Manifests are cached in an LRU. An evicted manifest is parsed again from
// its descriptor on the next lookup, so the cache size bounds memory, not
// the number of installed applications.
//
// Example Usage:
//
//	catalog, err := registry.NewCatalog("/usr/palm/applications", registry.WithCacheSize(64))
//	report, err := catalog.Scan(ctx)
//	m, ok := catalog.Lookup("com.example.app")
package registry
