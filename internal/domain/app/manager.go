package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/bridge"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/manifest"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/sandbox"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/types"
)

const (
	// EvalTimeoutsBeforeSuspend consecutive interrupted scripts suspend evaluation
	EvalTimeoutsBeforeSuspend = 3
	// EvalCooldown is how long evaluation stays suspended
	EvalCooldown = 30 * time.Second
)

var (
	ErrNotFound       = errors.New("instance not found")
	ErrNotInspectable = errors.New("application is not inspectable")
	ErrNoSandbox      = errors.New("no script context configured")
	ErrInstanceClosed = errors.New("instance is closed")
)

// forgetter is implemented by hosts that keep per-application state
type forgetter interface {
	Forget(appID string)
}

// LaunchOptions carries launch-time settings for one launch request
type LaunchOptions struct {
	// Params is the JSON launch parameter document; empty keeps the current one
	Params string
	// DisplayAffinity pins the application to a display when set
	DisplayAffinity *int
}

// Manager owns every running instance. Each instance gets its own bridge
// bound to the shared host; the container readiness flag is the only state
// shared between instances.
type Manager struct {
	mu        sync.RWMutex
	instances map[id.InstanceID]*Instance // Protected by mu
	byApp     map[string]id.InstanceID    // Protected by mu

	host         bridge.HostAdapter
	container    *ContainerState
	sandboxCfg   *sandbox.Config
	localeRegion string
	log          *zap.Logger
	metrics      *monitoring.Metrics

	newSandbox func(sandbox.Config) (*sandbox.Runtime, error)
}

// NewManager creates a manager dispatching host operations to host
func NewManager(host bridge.HostAdapter, container *ContainerState) *Manager {
	return &Manager{
		instances:  make(map[id.InstanceID]*Instance),
		byApp:      make(map[string]id.InstanceID),
		host:       host,
		container:  container,
		log:        zap.NewNop(),
		newSandbox: sandbox.New,
	}
}

// WithMetrics adds metrics tracking to the manager and its bridges
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

func (m *Manager) WithLogger(logger *zap.Logger) *Manager {
	if logger != nil {
		m.log = logger
	}
	return m
}

// WithSandbox gives every new instance a script context built from cfg
func (m *Manager) WithSandbox(cfg sandbox.Config) *Manager {
	m.sandboxCfg = &cfg
	return m
}

// WithLocaleRegion sets the value bridges report for localeRegion
func (m *Manager) WithLocaleRegion(region string) *Manager {
	m.localeRegion = region
	return m
}

// Launch starts mf, or delivers the launch to its running instance.
// The second result reports whether an existing instance was reused.
// Each new instance owns a clone of mf, so runtime overrides never leak
// back into the caller's copy or into later instances.
func (m *Manager) Launch(ctx context.Context, mf *manifest.Manifest, opts LaunchOptions) (*Instance, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	display, err := displayOverride(opts.DisplayAffinity)
	if err != nil {
		return nil, false, err
	}

	log := m.log.With(zap.String("app_id", mf.ID()))

	m.mu.Lock()
	defer m.mu.Unlock()

	if existingID, running := m.byApp[mf.ID()]; running {
		inst := m.instances[existingID]
		if err := m.applyLaunch(inst, opts.Params, display); err != nil {
			return nil, false, err
		}
		inst.launches.Add(1)
		if mf.HandlesRelaunch() {
			log.Info("Delivering relaunch", zap.String("instance_id", inst.id.String()))
		} else {
			log.Debug("Application already running, reusing instance", zap.String("instance_id", inst.id.String()))
		}
		if m.metrics != nil {
			m.metrics.IncRelaunches()
		}
		return inst, true, nil
	}

	inst, err := m.newInstance(mf.Clone(), log)
	if err != nil {
		return nil, false, err
	}
	if err := m.applyLaunch(inst, opts.Params, display); err != nil {
		inst.close()
		return nil, false, err
	}

	m.instances[inst.id] = inst
	m.byApp[mf.ID()] = inst.id

	if m.metrics != nil {
		m.metrics.IncInstancesTotal()
		m.metrics.SetInstancesActive(len(m.instances))
	}

	log.Info("Instance launched",
		zap.String("instance_id", inst.id.String()),
		zap.Stringer("trust_level", mf.TrustLevel()),
	)
	return inst, false, nil
}

// displayOverride converts a requested display affinity; nil means no change
func displayOverride(d *int) (*manifest.DisplayID, error) {
	if d == nil {
		return nil, nil
	}
	display := manifest.DisplayID(*d)
	if display > manifest.MaxDisplayID {
		return nil, fmt.Errorf("display affinity: %w: %d", manifest.ErrDisplayOutOfRange, *d)
	}
	return &display, nil
}

// applyLaunch forwards launch parameters to the host and pins the instance
// to display. Must be called with m.mu held.
func (m *Manager) applyLaunch(inst *Instance, params string, display *manifest.DisplayID) error {
	if params != "" {
		if err := m.host.SetLaunchParams(inst.manifest.ID(), params); err != nil {
			return fmt.Errorf("set launch params: %w", err)
		}
	}
	if display != nil {
		if err := inst.manifest.SetDisplayAffinity(*display); err != nil {
			return fmt.Errorf("display affinity: %w", err)
		}
	}
	return nil
}

// newInstance must be called with m.mu held
func (m *Manager) newInstance(mf *manifest.Manifest, log *zap.Logger) (*Instance, error) {
	instanceID := id.NewInstanceID()

	opts := []bridge.Option{
		bridge.WithLogger(m.log),
		bridge.WithInstanceID(instanceID.String()),
		bridge.WithLocaleRegion(m.localeRegion),
	}
	if m.metrics != nil {
		opts = append(opts, bridge.WithMetrics(m.metrics))
	}

	inst := &Instance{
		id:        instanceID,
		windowID:  id.NewWindowID(),
		manifest:  mf,
		bridge:    bridge.New(mf, m.host, opts...),
		createdAt: time.Now(),
	}
	inst.launches.Store(1)

	if m.sandboxCfg != nil {
		cfg := *m.sandboxCfg
		cfg.Logger = log.With(zap.String("instance_id", instanceID.String()))

		rt, err := m.newSandbox(cfg)
		if err != nil {
			return nil, fmt.Errorf("create script context: %w", err)
		}
		if err := rt.Bind(inst.bridge); err != nil {
			rt.Close()
			return nil, fmt.Errorf("bind bridge: %w", err)
		}
		inst.sandbox = rt
		inst.breaker = newEvalBreaker(instanceID, cfg.Logger)
	}

	return inst, nil
}

// newEvalBreaker suspends script evaluation after consecutive timeouts.
// Script errors do not count; only interrupted runs do.
func newEvalBreaker(instanceID id.InstanceID, log *zap.Logger) *resilience.Breaker {
	return resilience.New("eval:"+instanceID.String(), resilience.Settings{
		Timeout: EvalCooldown,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= EvalTimeoutsBeforeSuspend
		},
		IsFailure: func(err error) bool {
			return errors.Is(err, sandbox.ErrInterrupted)
		},
		OnStateChange: func(_ string, from, to resilience.State) {
			log.Warn("Script evaluation breaker changed state",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
}

// Get retrieves an instance by id
func (m *Manager) Get(instanceID id.InstanceID) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, ok := m.instances[instanceID]
	return inst, ok
}

// FindByApp returns the running instance of appID
func (m *Manager) FindByApp(appID string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	instanceID, ok := m.byApp[appID]
	if !ok {
		return nil, false
	}
	return m.instances[instanceID], true
}

// List returns all instances in launch order
func (m *Manager) List() []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		out = append(out, inst)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].id < out[b].id })
	return out
}

// Close destroys an instance and its script context
func (m *Manager) Close(instanceID id.InstanceID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[instanceID]
	if !ok {
		return false
	}

	delete(m.instances, instanceID)
	delete(m.byApp, inst.manifest.ID())
	inst.close()
	if f, ok := m.host.(forgetter); ok {
		f.Forget(inst.manifest.ID())
	}

	if m.metrics != nil {
		m.metrics.SetInstancesActive(len(m.instances))
	}
	m.log.Info("Instance closed",
		zap.String("app_id", inst.manifest.ID()),
		zap.String("instance_id", instanceID.String()),
	)
	return true
}

// CloseAll destroys every instance; used at shutdown
func (m *Manager) CloseAll() {
	for _, inst := range m.List() {
		m.Close(inst.id)
	}
}

// Stats returns manager statistics
func (m *Manager) Stats() types.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := types.Stats{
		TotalInstances: len(m.instances),
		ByTrustLevel:   make(map[string]int),
	}
	for _, inst := range m.instances {
		if !inst.closed.Load() {
			stats.ActiveInstances++
		}
		stats.ByTrustLevel[inst.manifest.TrustLevel().String()]++
	}
	if m.container != nil {
		stats.ContainerAppID = m.container.AppID()
		stats.ContainerReady = m.container.Ready()
	}
	return stats
}
