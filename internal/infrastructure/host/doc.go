// Package host implements the native side of the capability bridge.
//
// Adapter answers device queries from a property file, reads application
// resources as UTF-8 text and keeps the per-application state bridges
// mutate: launch parameters, locales, load-error policies and keep-alive
// flags. Lifecycle signals are logged and counted.
//
// Property files are flat maps of scalars in JSON, YAML or TOML:
//
//	modelName: WEBOS-TV
//	LocalCountry: USA
//	SmartServiceCountry: US
//
// One Adapter serves every running instance and is safe for concurrent use.
package host
