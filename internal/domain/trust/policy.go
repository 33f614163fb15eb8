package trust

import "sort"

// Level is a trust classification. Higher values are more privileged.
type Level int

const (
	Default Level = iota
	Trusted
	Internal
)

var levelNames = [...]string{
	Default:  "default",
	Trusted:  "trusted",
	Internal: "internal",
}

// String returns the descriptor spelling of the level
func (l Level) String() string {
	if l < Default || l > Internal {
		return levelNames[Default]
	}
	return levelNames[l]
}

// MarshalText encodes the level using its descriptor spelling
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseLevel matches s exactly against the recognized levels
func ParseLevel(s string) (Level, bool) {
	for i, name := range levelNames {
		if name == s {
			return Level(i), true
		}
	}
	return Default, false
}

// Classify returns the level declared by s, or Default when s is not recognized
func Classify(s string) Level {
	level, _ := ParseLevel(s)
	return level
}

// Capability names a host operation reachable from hosted content
type Capability string

const (
	CapGetDeviceInfo               Capability = "getDeviceInfo"
	CapGetResource                 Capability = "getResource"
	CapCountry                     Capability = "country"
	CapLocale                      Capability = "locale"
	CapLocaleRegion                Capability = "localeRegion"
	CapPhoneRegion                 Capability = "phoneRegion"
	CapSetContainerAppReady        Capability = "setContainerAppReady"
	CapSetCountry                  Capability = "setCountry"
	CapSetLocale                   Capability = "setLocale"
	CapSetLaunchParams             Capability = "setLaunchParams"
	CapSetLoadErrorPolicy          Capability = "setLoadErrorPolicy"
	CapHandleBrowserControlMessage Capability = "handleBrowserControlMessage"
	CapGetWindowGroupInfo          Capability = "getWindowGroupInfo"
	CapGetWindowOwnerInfo          Capability = "getWindowOwnerInfo"
	CapGetWindowClientInfo         Capability = "getWindowClientInfo"
	CapInitialize                  Capability = "initialize"
	CapIdentifier                  Capability = "identifier"
	CapTrustLevel                  Capability = "trustLevel"
	CapIsMinimal                   Capability = "isMinimal"
	CapLaunchParams                Capability = "launchParams"
	CapStageReady                  Capability = "stageReady"
	CapOnCloseNotify               Capability = "onCloseNotify"
	CapKeepAlive                   Capability = "keepAlive"
)

// minimums is process-wide policy data; it is never written after init.
var minimums = map[Capability]Level{
	CapGetDeviceInfo:               Default,
	CapGetResource:                 Default,
	CapCountry:                     Default,
	CapLocale:                      Default,
	CapLocaleRegion:                Default,
	CapPhoneRegion:                 Default,
	CapSetContainerAppReady:        Internal,
	CapSetCountry:                  Default,
	CapSetLocale:                   Default,
	CapSetLaunchParams:             Default,
	CapSetLoadErrorPolicy:          Default,
	CapHandleBrowserControlMessage: Default,
	CapGetWindowGroupInfo:          Default,
	CapGetWindowOwnerInfo:          Default,
	CapGetWindowClientInfo:         Default,
	CapInitialize:                  Default,
	CapIdentifier:                  Default,
	CapTrustLevel:                  Default,
	CapIsMinimal:                   Default,
	CapLaunchParams:                Default,
	CapStageReady:                  Default,
	CapOnCloseNotify:               Default,
	CapKeepAlive:                   Trusted,
}

// Minimum returns the least level allowed to invoke c
func Minimum(c Capability) (Level, bool) {
	level, ok := minimums[c]
	return level, ok
}

// IsAllowed reports whether an application at level may invoke c.
// Capabilities missing from the policy table are never allowed.
func IsAllowed(level Level, c Capability) bool {
	required, ok := minimums[c]
	if !ok {
		return false
	}
	return level >= required
}

// Classified is anything carrying a trust level, such as a parsed manifest
type Classified interface {
	TrustLevel() Level
}

// IsAllowedFor reports whether the application described by m may invoke c.
// A running instance answers the same question through Bridge.Allowed.
func IsAllowedFor(m Classified, c Capability) bool {
	return IsAllowed(m.TrustLevel(), c)
}

// Capabilities lists every capability in the policy table, sorted by name
func Capabilities() []Capability {
	caps := make([]Capability, 0, len(minimums))
	for c := range minimums {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}
