package bridge

// HostAdapter is the native side of the bridge.
// Implementations must be safe for concurrent use by many bridges.
type HostAdapter interface {
	// DeviceInfo returns a named device property, or "" when unknown
	DeviceInfo(name string) string
	SystemLanguage() string
	ReadFileContent(path string) (string, error)
	ContainerAppID() string
	// SetContainerAppReady flips the shared container readiness flag
	SetContainerAppReady(ready bool)

	SetCountry() error
	SetLocale(appID, tags string) error
	SetLaunchParams(appID, params string) error
	LaunchParams(appID string) string
	SetLoadErrorPolicy(appID, policy string) error
	SetKeepAlive(appID string, keep bool) error
	StageReady(appID string) error
	CloseNotify(appID, params string) error
}
