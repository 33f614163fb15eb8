package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/bridge"
)

// Runtime wraps a goja VM with security controls
type Runtime struct {
	vm     *goja.Runtime
	config Config
	log    *zap.Logger
	mu     sync.Mutex

	// Set while Execute runs; PalmSystem calls use it for dispatch
	ctx    context.Context
	bridge *bridge.Bridge

	console   []LogEntry
	consoleMu sync.Mutex
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	r := &Runtime{
		config:  config,
		log:     config.Logger,
		ctx:     context.Background(),
		console: []LogEntry{},
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}

	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runtime) init() error {
	r.vm = goja.New()
	if r.config.MaxCallStackSize > 0 {
		r.vm.SetMaxCallStackSize(r.config.MaxCallStackSize)
	}
	if err := r.setupGlobals(); err != nil {
		return err
	}
	if r.bridge != nil {
		return r.installPalmSystem(r.bridge)
	}
	return nil
}

// Execute runs script with the configured timeout. ctx cancellation
// interrupts the script as well.
func (r *Runtime) Execute(ctx context.Context, script string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, ErrClosed
	}

	start := time.Now()

	r.consoleMu.Lock()
	r.console = []LogEntry{}
	r.consoleMu.Unlock()

	r.ctx = ctx
	defer func() { r.ctx = context.Background() }()

	var timeout <-chan time.Time
	if r.config.Timeout > 0 {
		timer := time.NewTimer(r.config.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	vm := r.vm
	go func() {
		defer close(stopped)
		select {
		case <-timeout:
			vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	val, err := vm.RunString(script)
	close(done)
	// The watcher may still interrupt after RunString returns; wait for it
	// so the clear below cannot be overtaken.
	<-stopped
	vm.ClearInterrupt()

	result := &Result{
		Duration: time.Since(start),
		Console:  r.drainConsole(),
	}

	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return result, fmt.Errorf("%w: %v", ErrInterrupted, interrupted.Value())
		}
		return result, err
	}

	result.Value = exportValue(val)
	return result, nil
}

// Bind installs b as the PalmSystem global. The binding survives Reset.
func (r *Runtime) Bind(b *bridge.Bridge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return ErrClosed
	}
	r.bridge = b
	return r.installPalmSystem(b)
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		for _, level := range []string{"log", "warn", "error", "info"} {
			if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		if err := r.vm.Set("console", console); err != nil {
			return err
		}
	}

	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"setTimeout", "setInterval"} {
		if err := r.vm.Set(name, noop); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: msg,
			Time:    time.Now(),
		})
		r.consoleMu.Unlock()

		r.log.Debug("Script console", zap.String("level", level), zap.String("message", msg))
		return goja.Undefined()
	}
}

func (r *Runtime) drainConsole() []LogEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()

	out := append([]LogEntry{}, r.console...)
	r.console = []LogEntry{}
	return out
}

func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// Reset discards all script state and rebuilds the globals
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return ErrClosed
	}

	r.consoleMu.Lock()
	r.console = []LogEntry{}
	r.consoleMu.Unlock()

	return r.init()
}

// Close releases the VM; later calls return ErrClosed
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.bridge = nil
	return nil
}
