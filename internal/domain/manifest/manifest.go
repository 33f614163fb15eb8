package manifest

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-version"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/trust"
)

// WindowClass selects how the runtime creates the application's window
type WindowClass int

const (
	WindowClassNormal WindowClass = iota
	WindowClassHidden
)

func (c WindowClass) String() string {
	if c == WindowClassHidden {
		return "hidden"
	}
	return "normal"
}

// DisplayID identifies a physical display
type DisplayID int

// MaxDisplayID is the largest display id an override can carry
const MaxDisplayID DisplayID = math.MaxInt32

// noDisplay marks an unset display affinity inside the atomic
const noDisplay = -1

// ErrDisplayOutOfRange is returned for display ids above MaxDisplayID
var ErrDisplayOutOfRange = errors.New("display id out of range")

// KeyRemap is the replacement for one input key code
type KeyRemap struct {
	Code      int `json:"code"`
	Modifiers int `json:"modifiers"`
}

// WindowGroupInfo describes the window group an application joins
type WindowGroupInfo struct {
	Name    string `json:"name"`
	IsOwner bool   `json:"is_owner"`
}

// WindowOwnerInfo is meaningful only for the group owner
type WindowOwnerInfo struct {
	AllowAnonymous bool           `json:"allow_anonymous"`
	Layers         map[string]int `json:"layers"`
}

// WindowClientInfo places a client window inside its owner's layers
type WindowClientInfo struct {
	Layer string `json:"layer"`
	Hint  string `json:"hint"`
}

type optional[T any] struct {
	value T
	set   bool
}

func some[T any](v T) optional[T] {
	return optional[T]{value: v, set: true}
}

func (o optional[T]) get() (T, bool) {
	return o.value, o.set
}

func (o optional[T]) ptr() *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// Manifest is the validated configuration of one hosted application.
// Use Parse or ParseFormat to build one. Each running instance owns its own
// copy (see Clone); only the two runtime overrides ever change.
type Manifest struct {
	fields

	// Runtime overrides, written by the owning runtime after parsing.
	displayAffinity        atomic.Int32
	backHistoryAPIDisabled atomic.Bool
}

// fields holds everything fixed at parse time
type fields struct {
	id         string
	title      string
	entryPoint string
	icon       string

	windowClass       WindowClass
	widthOverride     optional[int]
	heightOverride    optional[int]
	surfaceRole       int
	panelType         int
	defaultWindowType string
	locationHint      string

	trustLevel      trust.Level
	trustDeclared   string
	subType         string
	vendorExtension string

	transparent                  bool
	handlesRelaunch              bool
	inspectable                  bool
	customPlugin                 bool
	useNativeScroll              bool
	usePrerendering              bool
	doNotTrack                   bool
	handleExitKey                bool
	supportsAudioGuidance        bool
	enableBackgroundRun          bool
	allowVideoCapture            bool
	allowAudioCapture            bool
	useUnlimitedMediaPolicy      bool
	disallowScrollingInMainFrame bool
	useVirtualKeyboard           bool

	enyoBundleVersion           string
	supportedEnyoBundleVersions map[string]struct{}
	enyoVersion                 string
	version                     string
	v8SnapshotPath              string
	v8ExtraFlags                string

	networkStableTimeout optional[float64]
	launchOptimDelay     optional[time.Duration]
	customSuspendDOMTime optional[time.Duration]

	groupWindowDesc  string
	windowGroupInfo  WindowGroupInfo
	windowOwnerInfo  WindowOwnerInfo
	windowClientInfo WindowClientInfo

	deeplinkingParams string
	keyFilterTable    map[int]KeyRemap
	mediaPreferences  string
	folderPath        string

	// Declared values the runtime overrides start from
	declaredDisplay        int32
	declaredBackHistoryOff bool
}

// newManifest builds a manifest whose overrides hold the declared values
func newManifest(f fields) *Manifest {
	m := &Manifest{fields: f}
	m.displayAffinity.Store(f.declaredDisplay)
	m.backHistoryAPIDisabled.Store(f.declaredBackHistoryOff)
	return m
}

// Clone returns a copy with the runtime overrides reset to the declared
// values. Parsed collections are shared; nothing mutates them after parsing.
func (m *Manifest) Clone() *Manifest {
	return newManifest(m.fields)
}

func (m *Manifest) ID() string         { return m.id }
func (m *Manifest) Title() string      { return m.title }
func (m *Manifest) EntryPoint() string { return m.entryPoint }
func (m *Manifest) Icon() string       { return m.icon }

func (m *Manifest) WindowClass() WindowClass  { return m.windowClass }
func (m *Manifest) SurfaceRole() int          { return m.surfaceRole }
func (m *Manifest) PanelType() int            { return m.panelType }
func (m *Manifest) DefaultWindowType() string { return m.defaultWindowType }
func (m *Manifest) LocationHint() string      { return m.locationHint }

// WidthOverride is unset unless the descriptor declares a positive width
func (m *Manifest) WidthOverride() (int, bool) { return m.widthOverride.get() }

// HeightOverride is unset unless the descriptor declares a positive height
func (m *Manifest) HeightOverride() (int, bool) { return m.heightOverride.get() }

// TrustLevel is the classified level; unrecognized declarations yield trust.Default
func (m *Manifest) TrustLevel() trust.Level { return m.trustLevel }

// DeclaredTrustLevel is the raw trustLevel string from the descriptor
func (m *Manifest) DeclaredTrustLevel() string { return m.trustDeclared }
func (m *Manifest) SubType() string            { return m.subType }
func (m *Manifest) VendorExtension() string    { return m.vendorExtension }

func (m *Manifest) IsTransparent() bool                { return m.transparent }
func (m *Manifest) HandlesRelaunch() bool              { return m.handlesRelaunch }
func (m *Manifest) IsInspectable() bool                { return m.inspectable }
func (m *Manifest) UseCustomPlugin() bool              { return m.customPlugin }
func (m *Manifest) UseNativeScroll() bool              { return m.useNativeScroll }
func (m *Manifest) UsePrerendering() bool              { return m.usePrerendering }
func (m *Manifest) DoNotTrack() bool                   { return m.doNotTrack }
func (m *Manifest) HandleExitKey() bool                { return m.handleExitKey }
func (m *Manifest) SupportsAudioGuidance() bool        { return m.supportsAudioGuidance }
func (m *Manifest) IsBackgroundRunEnabled() bool       { return m.enableBackgroundRun }
func (m *Manifest) AllowVideoCapture() bool            { return m.allowVideoCapture }
func (m *Manifest) AllowAudioCapture() bool            { return m.allowAudioCapture }
func (m *Manifest) UseUnlimitedMediaPolicy() bool      { return m.useUnlimitedMediaPolicy }
func (m *Manifest) DisallowScrollingInMainFrame() bool { return m.disallowScrollingInMainFrame }
func (m *Manifest) UseVirtualKeyboard() bool           { return m.useVirtualKeyboard }

func (m *Manifest) EnyoBundleVersion() string { return m.enyoBundleVersion }
func (m *Manifest) EnyoVersion() string       { return m.enyoVersion }
func (m *Manifest) Version() string           { return m.version }
func (m *Manifest) V8SnapshotPath() string    { return m.v8SnapshotPath }
func (m *Manifest) V8ExtraFlags() string      { return m.v8ExtraFlags }

// SupportedEnyoBundleVersions returns the declared set in sorted order
func (m *Manifest) SupportedEnyoBundleVersions() []string {
	out := make([]string, 0, len(m.supportedEnyoBundleVersions))
	for v := range m.supportedEnyoBundleVersions {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// SupportsEnyoBundleVersion reports set membership. Tokens that parse as
// versions compare semantically, so "2.6" matches a declared "2.6.0".
func (m *Manifest) SupportsEnyoBundleVersion(v string) bool {
	_, ok := m.supportedEnyoBundleVersions[canonicalVersion(v)]
	return ok
}

// NetworkStableTimeout is in seconds
func (m *Manifest) NetworkStableTimeout() (float64, bool) { return m.networkStableTimeout.get() }

func (m *Manifest) DelayForLaunchOptimization() (time.Duration, bool) {
	return m.launchOptimDelay.get()
}

func (m *Manifest) CustomSuspendDOMTime() (time.Duration, bool) {
	return m.customSuspendDOMTime.get()
}

// GroupWindowDesc is the raw windowGroup object as JSON text
func (m *Manifest) GroupWindowDesc() string { return m.groupWindowDesc }

func (m *Manifest) WindowGroupInfo() WindowGroupInfo { return m.windowGroupInfo }

func (m *Manifest) WindowOwnerInfo() WindowOwnerInfo {
	layers := make(map[string]int, len(m.windowOwnerInfo.Layers))
	for k, v := range m.windowOwnerInfo.Layers {
		layers[k] = v
	}
	return WindowOwnerInfo{AllowAnonymous: m.windowOwnerInfo.AllowAnonymous, Layers: layers}
}

func (m *Manifest) WindowClientInfo() WindowClientInfo { return m.windowClientInfo }

func (m *Manifest) DeeplinkingParams() string { return m.deeplinkingParams }

// HandlesDeeplinking is derived from the deep-link parameters, never stored
func (m *Manifest) HandlesDeeplinking() bool { return m.deeplinkingParams != "" }

// KeyFilterTable maps an input key code to its replacement.
// Only the facebooklogin application declares one.
func (m *Manifest) KeyFilterTable() map[int]KeyRemap {
	out := make(map[int]KeyRemap, len(m.keyFilterTable))
	for k, v := range m.keyFilterTable {
		out[k] = v
	}
	return out
}

func (m *Manifest) MediaPreferences() string { return m.mediaPreferences }
func (m *Manifest) FolderPath() string       { return m.folderPath }

// DisplayAffinity returns the display the application is pinned to, if any
func (m *Manifest) DisplayAffinity() (DisplayID, bool) {
	d := m.displayAffinity.Load()
	if d == noDisplay {
		return 0, false
	}
	return DisplayID(d), true
}

// SetDisplayAffinity pins the application to display d. Negative ids clear the pin.
func (m *Manifest) SetDisplayAffinity(d DisplayID) error {
	if d < 0 {
		m.displayAffinity.Store(noDisplay)
		return nil
	}
	if d > MaxDisplayID {
		return fmt.Errorf("%w: %d", ErrDisplayOutOfRange, d)
	}
	m.displayAffinity.Store(int32(d))
	return nil
}

func (m *Manifest) BackHistoryAPIDisabled() bool { return m.backHistoryAPIDisabled.Load() }

func (m *Manifest) SetBackHistoryAPIDisabled(disabled bool) {
	m.backHistoryAPIDisabled.Store(disabled)
}

// view is the read-only JSON projection used by ops endpoints and tooling
type view struct {
	ID                           string              `json:"id"`
	Title                        string              `json:"title"`
	EntryPoint                   string              `json:"main"`
	Icon                         string              `json:"icon"`
	Version                      string              `json:"version"`
	WindowClass                  string              `json:"window_class"`
	DefaultWindowType            string              `json:"default_window_type"`
	WidthOverride                *int                `json:"width_override,omitempty"`
	HeightOverride               *int                `json:"height_override,omitempty"`
	SurfaceRole                  int                 `json:"surface_role"`
	PanelType                    int                 `json:"panel_type"`
	DisplayAffinity              *DisplayID          `json:"display_affinity,omitempty"`
	TrustLevel                   string              `json:"trust_level"`
	SubType                      string              `json:"sub_type,omitempty"`
	VendorExtension              string              `json:"vendor_extension,omitempty"`
	HandlesDeeplinking           bool                `json:"handles_deeplinking"`
	HandlesRelaunch              bool                `json:"handles_relaunch"`
	Transparent                  bool                `json:"transparent"`
	Inspectable                  bool                `json:"inspectable"`
	CustomPlugin                 bool                `json:"custom_plugin"`
	NativeScroll                 bool                `json:"native_scroll"`
	Prerendering                 bool                `json:"prerendering"`
	DoNotTrack                   bool                `json:"do_not_track"`
	BackHistoryAPIDisabled       bool                `json:"back_history_api_disabled"`
	HandleExitKey                bool                `json:"handle_exit_key"`
	SupportsAudioGuidance        bool                `json:"supports_audio_guidance"`
	BackgroundRun                bool                `json:"background_run"`
	AllowVideoCapture            bool                `json:"allow_video_capture"`
	AllowAudioCapture            bool                `json:"allow_audio_capture"`
	UnlimitedMediaPolicy         bool                `json:"unlimited_media_policy"`
	DisallowScrollingInMainFrame bool                `json:"disallow_scrolling_in_main_frame"`
	VirtualKeyboard              bool                `json:"virtual_keyboard"`
	EnyoBundleVersion            string              `json:"enyo_bundle_version,omitempty"`
	SupportedEnyoBundleVersions  []string            `json:"supported_enyo_bundle_versions"`
	NetworkStableTimeout         *float64            `json:"network_stable_timeout,omitempty"`
	LaunchOptimizationDelayMs    *int64              `json:"launch_optimization_delay_ms,omitempty"`
	CustomSuspendDOMTimeMs       *int64              `json:"custom_suspend_dom_time_ms,omitempty"`
	WindowGroup                  WindowGroupInfo     `json:"window_group"`
	WindowOwner                  WindowOwnerInfo     `json:"window_owner"`
	WindowClient                 WindowClientInfo    `json:"window_client"`
	KeyFilterTable               map[string]KeyRemap `json:"key_filter_table,omitempty"`
	MediaPreferences             string              `json:"media_preferences,omitempty"`
	FolderPath                   string              `json:"folder_path"`
}

// MarshalJSON encodes the manifest's read-only view
func (m *Manifest) MarshalJSON() ([]byte, error) {
	v := view{
		ID:                           m.id,
		Title:                        m.title,
		EntryPoint:                   m.entryPoint,
		Icon:                         m.icon,
		Version:                      m.version,
		WindowClass:                  m.windowClass.String(),
		DefaultWindowType:            m.defaultWindowType,
		WidthOverride:                m.widthOverride.ptr(),
		HeightOverride:               m.heightOverride.ptr(),
		SurfaceRole:                  m.surfaceRole,
		PanelType:                    m.panelType,
		TrustLevel:                   m.trustLevel.String(),
		SubType:                      m.subType,
		VendorExtension:              m.vendorExtension,
		HandlesDeeplinking:           m.HandlesDeeplinking(),
		HandlesRelaunch:              m.handlesRelaunch,
		Transparent:                  m.transparent,
		Inspectable:                  m.inspectable,
		CustomPlugin:                 m.customPlugin,
		NativeScroll:                 m.useNativeScroll,
		Prerendering:                 m.usePrerendering,
		DoNotTrack:                   m.doNotTrack,
		BackHistoryAPIDisabled:       m.BackHistoryAPIDisabled(),
		HandleExitKey:                m.handleExitKey,
		SupportsAudioGuidance:        m.supportsAudioGuidance,
		BackgroundRun:                m.enableBackgroundRun,
		AllowVideoCapture:            m.allowVideoCapture,
		AllowAudioCapture:            m.allowAudioCapture,
		UnlimitedMediaPolicy:         m.useUnlimitedMediaPolicy,
		DisallowScrollingInMainFrame: m.disallowScrollingInMainFrame,
		VirtualKeyboard:              m.useVirtualKeyboard,
		EnyoBundleVersion:            m.enyoBundleVersion,
		SupportedEnyoBundleVersions:  m.SupportedEnyoBundleVersions(),
		NetworkStableTimeout:         m.networkStableTimeout.ptr(),
		WindowGroup:                  m.windowGroupInfo,
		WindowOwner:                  m.WindowOwnerInfo(),
		WindowClient:                 m.windowClientInfo,
		MediaPreferences:             m.mediaPreferences,
		FolderPath:                   m.folderPath,
	}

	if d, ok := m.DisplayAffinity(); ok {
		v.DisplayAffinity = &d
	}
	if d, ok := m.launchOptimDelay.get(); ok {
		ms := d.Milliseconds()
		v.LaunchOptimizationDelayMs = &ms
	}
	if d, ok := m.customSuspendDOMTime.get(); ok {
		ms := d.Milliseconds()
		v.CustomSuspendDOMTimeMs = &ms
	}
	if len(m.keyFilterTable) > 0 {
		v.KeyFilterTable = make(map[string]KeyRemap, len(m.keyFilterTable))
		for code, remap := range m.keyFilterTable {
			v.KeyFilterTable[strconv.Itoa(code)] = remap
		}
	}

	return sonic.ConfigStd.Marshal(v)
}

// canonicalVersion normalizes parseable version tokens so "2.6" and "2.6.0" collide
func canonicalVersion(token string) string {
	v, err := version.NewVersion(token)
	if err != nil {
		return token
	}
	return v.String()
}
