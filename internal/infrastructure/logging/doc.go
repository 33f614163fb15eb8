// Package logging provides structured logging using uber/zap.
//
// Two modes are offered:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a *zap.Logger scoped with Component, so every line a
// subsystem writes carries a "component" field. Bridges further add the
// application id and instance id.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "debug", Development: true})
//	bridgeLog := logger.Component("bridge")
//	bridgeLog.Warn("Capability denied", zap.String("capability", "setLocale"))
package logging
