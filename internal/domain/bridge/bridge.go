package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/manifest"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/trust"
)

const defaultLocaleRegion = "US"

// Call outcomes reported to the Recorder
const (
	StatusOK          = "ok"
	StatusUnhandled   = "unhandled"
	StatusFallback    = "fallback"
	StatusUnknown     = "unknown"
	StatusForbidden   = "forbidden"
	StatusInvalid     = "invalid"
	StatusHostFailure = "host_failure"
)

// Recorder receives per-call observations
type Recorder interface {
	ObserveBridgeCall(capability, status string, duration time.Duration)
	ObserveBridgeDenial(capability string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveBridgeCall(string, string, time.Duration) {}
func (nopRecorder) ObserveBridgeDenial(string)                      {}

// Option configures a Bridge
type Option func(*Bridge)

func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.log = logger
		}
	}
}

func WithMetrics(r Recorder) Option {
	return func(b *Bridge) {
		if r != nil {
			b.metrics = r
		}
	}
}

// WithInstanceID tags log lines with the owning window or instance
func WithInstanceID(id string) Option {
	return func(b *Bridge) {
		b.instanceID = id
	}
}

// WithLocaleRegion overrides the constant returned by localeRegion
func WithLocaleRegion(region string) Option {
	return func(b *Bridge) {
		if region != "" {
			b.localeRegion = region
		}
	}
}

// Bridge dispatches messages for a single application instance.
// It holds no per-call state and is safe for concurrent use.
type Bridge struct {
	manifest     *manifest.Manifest
	host         HostAdapter
	log          *zap.Logger
	metrics      Recorder
	instanceID   string
	localeRegion string
}

// New creates a bridge bound to m and host
func New(m *manifest.Manifest, host HostAdapter, opts ...Option) *Bridge {
	b := &Bridge{
		manifest:     m,
		host:         host,
		log:          zap.NewNop(),
		metrics:      nopRecorder{},
		localeRegion: defaultLocaleRegion,
	}
	for _, opt := range opts {
		opt(b)
	}

	fields := []zap.Field{zap.String("app_id", m.ID())}
	if b.instanceID != "" {
		fields = append(fields, zap.String("instance_id", b.instanceID))
	}
	b.log = b.log.With(fields...)

	return b
}

func (b *Bridge) Manifest() *manifest.Manifest { return b.manifest }
func (b *Bridge) InstanceID() string           { return b.instanceID }

// Dispatch runs msg through lookup, trust check, validation and invocation.
// Errors are always *CapabilityError.
func (b *Bridge) Dispatch(ctx context.Context, msg Message) (Result, error) {
	start := time.Now()

	c, ok := catalogue[trust.Capability(msg.Method)]
	if !ok {
		b.log.Debug("Unknown capability", zap.String("method", msg.Method), zap.String("message_id", msg.ID))
		b.metrics.ObserveBridgeCall(msg.Method, StatusUnknown, time.Since(start))
		return Result{}, unknownCapability(msg.Method)
	}

	result, status, err := b.invoke(ctx, c, msg.ID, msg.Params)
	b.metrics.ObserveBridgeCall(msg.Method, status, time.Since(start))
	return result, err
}

// Handle is the inbound interface for hosted content.
// Every failure is reduced to OK=false with no payload.
func (b *Bridge) Handle(ctx context.Context, msg Message) Response {
	result, err := b.Dispatch(ctx, msg)
	if err != nil {
		return Response{ID: msg.ID, OK: false}
	}
	return Response{
		ID:        msg.ID,
		OK:        true,
		Payload:   result.Payload,
		Unhandled: result.Unhandled,
	}
}

// Call is shorthand for Dispatch with a fresh message id
func (b *Bridge) Call(ctx context.Context, method string, params ...string) (Result, error) {
	return b.Dispatch(ctx, NewMessage(method, params...))
}

// Allowed reports whether this instance's manifest may invoke c
func (b *Bridge) Allowed(c trust.Capability) bool {
	return trust.IsAllowedFor(b.manifest, c)
}

// invoke performs steps two to four for a catalogue entry
func (b *Bridge) invoke(ctx context.Context, c capability, msgID string, params []string) (Result, string, error) {
	log := b.log.With(zap.String("capability", string(c.name)), zap.String("message_id", msgID))

	if !b.Allowed(c.name) {
		required, _ := trust.Minimum(c.name)
		log.Warn("Capability denied",
			zap.Stringer("trust_level", b.manifest.TrustLevel()),
			zap.Stringer("required", required),
		)
		b.metrics.ObserveBridgeDenial(string(c.name))
		return Result{}, StatusForbidden, forbidden(string(c.name))
	}

	if err := c.check(params); err != nil {
		log.Debug("Invalid arguments", zap.Error(err), zap.Int("params", len(params)))
		return Result{}, StatusInvalid, err
	}

	result, err := b.run(ctx, c, params)
	if err != nil {
		var capErr *CapabilityError
		if errors.As(err, &capErr) {
			// inner browser-control dispatch already classified the failure
			return Result{}, statusOf(capErr), capErr
		}
		if c.readOnly {
			log.Info("Host query failed, using default", zap.Error(err))
			return Result{Payload: c.fallback}, StatusFallback, nil
		}
		log.Error("Host operation failed", zap.Error(err))
		return Result{}, StatusHostFailure, hostFailure(string(c.name), err)
	}

	if result.Unhandled {
		return result, StatusUnhandled, nil
	}
	return result, StatusOK, nil
}

// run calls the handler, converting a panicking host into an error
func (b *Bridge) run(ctx context.Context, c capability, params []string) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host panic: %v", r)
		}
	}()
	return c.handler(ctx, b, params)
}

func statusOf(err *CapabilityError) string {
	switch err.Kind {
	case ErrForbidden:
		return StatusForbidden
	case ErrInvalidArgument:
		return StatusInvalid
	case ErrUnknownCapability:
		return StatusUnknown
	default:
		return StatusHostFailure
	}
}
