package host

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/bridge"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/monitoring"
)

// DefaultSystemLanguage is reported when no language is configured
const DefaultSystemLanguage = "en-US"

// Lifecycle signal names
const (
	SignalStageReady  = "stageReady"
	SignalCloseNotify = "closeNotify"
	SignalSetCountry  = "setCountry"
)

// Config holds the adapter settings
type Config struct {
	// DevicePropertiesPath is a JSON, YAML or TOML property file; empty means none
	DevicePropertiesPath string
	SystemLanguage       string
}

// Adapter is the process-wide HostAdapter
type Adapter struct {
	cfg       Config
	container *app.ContainerState
	log       *zap.Logger
	metrics   *monitoring.Metrics

	mu              sync.RWMutex
	properties      map[string]string // Protected by mu
	overrides       map[string]string // Protected by mu
	launchParams    map[string]string // Protected by mu
	locales         map[string]string // Protected by mu
	loadErrorPolicy map[string]string // Protected by mu
	keepAlive       map[string]bool   // Protected by mu
	signals         map[string]int    // Protected by mu
}

var _ bridge.HostAdapter = (*Adapter)(nil)

// Option configures an Adapter
type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.log = logger
		}
	}
}

// WithMetrics counts lifecycle signals as host operations
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(a *Adapter) {
		a.metrics = metrics
	}
}

// WithProperties sets device properties that take precedence over the file
func WithProperties(props map[string]string) Option {
	return func(a *Adapter) {
		for k, v := range props {
			a.overrides[k] = v
		}
	}
}

// New creates an adapter. A configured property file must be readable.
func New(cfg Config, container *app.ContainerState, opts ...Option) (*Adapter, error) {
	if container == nil {
		container = app.NewContainerState("")
	}
	if cfg.SystemLanguage == "" {
		cfg.SystemLanguage = DefaultSystemLanguage
	}

	a := &Adapter{
		cfg:             cfg,
		container:       container,
		log:             zap.NewNop(),
		properties:      make(map[string]string),
		overrides:       make(map[string]string),
		launchParams:    make(map[string]string),
		locales:         make(map[string]string),
		loadErrorPolicy: make(map[string]string),
		keepAlive:       make(map[string]bool),
		signals:         make(map[string]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With(zap.String("component", "host"))

	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload re-reads the device property file
func (a *Adapter) Reload() error {
	if a.cfg.DevicePropertiesPath == "" {
		return nil
	}

	props, err := loadProperties(a.cfg.DevicePropertiesPath)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.properties = props
	a.mu.Unlock()

	a.log.Debug("Device properties loaded",
		zap.String("path", a.cfg.DevicePropertiesPath),
		zap.Int("count", len(props)),
	)
	return nil
}

// SetProperty overrides a device property
func (a *Adapter) SetProperty(name, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.overrides[name] = value
}

func (a *Adapter) DeviceInfo(name string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if v, ok := a.overrides[name]; ok {
		return v
	}
	return a.properties[name]
}

// DeviceProperties returns the sorted names of every known property
func (a *Adapter) DeviceProperties() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	seen := make(map[string]struct{}, len(a.properties)+len(a.overrides))
	for k := range a.properties {
		seen[k] = struct{}{}
	}
	for k := range a.overrides {
		seen[k] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (a *Adapter) SystemLanguage() string { return a.cfg.SystemLanguage }

func (a *Adapter) ReadFileContent(path string) (string, error) {
	return readText(path)
}

func (a *Adapter) ContainerAppID() string { return a.container.AppID() }

// SetContainerAppReady only ever moves the flag to ready
func (a *Adapter) SetContainerAppReady(ready bool) {
	if !ready {
		return
	}
	if a.container.MarkReady() {
		a.log.Info("Container application ready", zap.String("app_id", a.container.AppID()))
	}
}

// SetCountry refreshes country properties from the property file
func (a *Adapter) SetCountry() error {
	a.signal(SignalSetCountry, "")
	if err := a.Reload(); err != nil {
		return fmt.Errorf("refresh country: %w", err)
	}
	return nil
}

func (a *Adapter) SetLocale(appID, tags string) error {
	a.mu.Lock()
	a.locales[appID] = tags
	a.mu.Unlock()

	a.log.Debug("Locale set", zap.String("app_id", appID), zap.String("locales", tags))
	return nil
}

// Locale returns the locale list last set for appID
func (a *Adapter) Locale(appID string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.locales[appID]
}

func (a *Adapter) SetLaunchParams(appID, params string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.launchParams[appID] = params
	return nil
}

func (a *Adapter) LaunchParams(appID string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.launchParams[appID]
}

func (a *Adapter) SetLoadErrorPolicy(appID, policy string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loadErrorPolicy[appID] = policy
	return nil
}

// LoadErrorPolicy returns the policy last set for appID, or "" when unset
func (a *Adapter) LoadErrorPolicy(appID string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loadErrorPolicy[appID]
}

func (a *Adapter) SetKeepAlive(appID string, keep bool) error {
	a.mu.Lock()
	a.keepAlive[appID] = keep
	a.mu.Unlock()

	a.log.Debug("Keep-alive changed", zap.String("app_id", appID), zap.Bool("keep_alive", keep))
	return nil
}

func (a *Adapter) KeepAlive(appID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.keepAlive[appID]
}

func (a *Adapter) StageReady(appID string) error {
	a.signal(SignalStageReady, appID)
	return nil
}

func (a *Adapter) CloseNotify(appID, params string) error {
	a.signal(SignalCloseNotify, appID, zap.String("params", params))
	return nil
}

// SignalCount returns how many times a lifecycle signal was received
func (a *Adapter) SignalCount(name string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.signals[name]
}

// Forget drops the per-application state of appID
func (a *Adapter) Forget(appID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.launchParams, appID)
	delete(a.locales, appID)
	delete(a.loadErrorPolicy, appID)
	delete(a.keepAlive, appID)
}

func (a *Adapter) signal(name, appID string, fields ...zap.Field) {
	a.mu.Lock()
	a.signals[name]++
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordOperation("host", name, "success", 0)
	}

	fields = append([]zap.Field{zap.String("signal", name)}, fields...)
	if appID != "" {
		fields = append(fields, zap.String("app_id", appID))
	}
	a.log.Info("Lifecycle signal", fields...)
}
