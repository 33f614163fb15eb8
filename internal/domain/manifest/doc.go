// Package manifest parses application descriptors into immutable manifests.
//
// A descriptor is the declarative appinfo document shipped in an
// application's install folder. JSON is the canonical encoding; YAML and TOML
// descriptors are accepted for side-loaded bundles.
//
// Parsing is tolerant per field: only a missing id or an undecodable document
// fails the parse. Every other key falls back to its default when absent or of
// the wrong type, and the anomaly is logged. An unrecognized trustLevel is
// downgraded to the least privileged level.
//
// Once built, a Manifest is read-only. The two runtime overrides, display
// affinity and the back-history-API flag, are the only values that may change
// after parsing and they are safe for concurrent use.
//
// Example:
//
//	m, err := manifest.Parse(data, manifest.WithLogger(logger.Logger))
//	if errors.Is(err, manifest.ErrMissingRequiredField) {
//	    // application cannot launch
//	}
//	if w, ok := m.WidthOverride(); ok {
//	    resize(w)
//	}
package manifest
