package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/bridge"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/manifest"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/sandbox"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/types"
)

// Instance is one running application: its manifest, its bridge and, when
// the manager has a sandbox configured, its script context.
type Instance struct {
	id        id.InstanceID
	windowID  id.WindowID
	manifest  *manifest.Manifest
	bridge    *bridge.Bridge
	sandbox   *sandbox.Runtime
	breaker   *resilience.Breaker
	createdAt time.Time
	launches  atomic.Int32
	closed    atomic.Bool
}

func (i *Instance) ID() id.InstanceID            { return i.id }
func (i *Instance) WindowID() id.WindowID        { return i.windowID }
func (i *Instance) Manifest() *manifest.Manifest { return i.manifest }
func (i *Instance) Bridge() *bridge.Bridge       { return i.bridge }
func (i *Instance) CreatedAt() time.Time         { return i.createdAt }

// Launches counts the first launch plus every relaunch delivered to it
func (i *Instance) Launches() int { return int(i.launches.Load()) }

// Call sends one message through the instance's bridge
func (i *Instance) Call(ctx context.Context, method string, params ...string) bridge.Response {
	return i.bridge.Handle(ctx, bridge.NewMessage(method, params...))
}

// Eval runs script in the instance's script context. Only inspectable
// applications accept it. After repeated timeouts the instance refuses
// scripts with resilience.ErrCircuitOpen until the breaker cools down.
func (i *Instance) Eval(ctx context.Context, script string) (*sandbox.Result, error) {
	if !i.manifest.IsInspectable() {
		return nil, ErrNotInspectable
	}
	if i.sandbox == nil {
		return nil, ErrNoSandbox
	}
	if i.closed.Load() {
		return nil, ErrInstanceClosed
	}
	return resilience.Run(i.breaker, func() (*sandbox.Result, error) {
		return i.sandbox.Execute(ctx, script)
	})
}

// Info returns the read-only view used by the ops API
func (i *Instance) Info() types.Instance {
	state := types.StateActive
	if i.closed.Load() {
		state = types.StateClosed
	}

	info := types.Instance{
		ID:          i.id.String(),
		WindowID:    i.windowID.String(),
		AppID:       i.manifest.ID(),
		Title:       i.manifest.Title(),
		TrustLevel:  i.manifest.TrustLevel().String(),
		State:       state,
		Inspectable: i.manifest.IsInspectable(),
		CreatedAt:   i.createdAt,
	}
	if d, ok := i.manifest.DisplayAffinity(); ok {
		display := int(d)
		info.DisplayAffinity = &display
	}
	return info
}

func (i *Instance) close() {
	if !i.closed.CompareAndSwap(false, true) {
		return
	}
	if i.sandbox != nil {
		i.sandbox.Close()
	}
}
