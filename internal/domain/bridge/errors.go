package bridge

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCapability = errors.New("unknown capability")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrHostFailure       = errors.New("host failure")
)

// CapabilityError is the runtime-side description of a failed call.
// It never crosses the trust boundary; Handle reduces it to an opaque Response.
type CapabilityError struct {
	Kind       error
	Capability string
	Reason     string
	Cause      error
}

func (e *CapabilityError) Error() string {
	msg := fmt.Sprintf("bridge: %s: %s", e.Capability, e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *CapabilityError) Is(target error) bool {
	return target == e.Kind
}

func (e *CapabilityError) Unwrap() error {
	return e.Cause
}

func unknownCapability(name string) *CapabilityError {
	return &CapabilityError{Kind: ErrUnknownCapability, Capability: name}
}

func forbidden(name string) *CapabilityError {
	return &CapabilityError{Kind: ErrForbidden, Capability: name}
}

func invalidArgument(name, reason string) *CapabilityError {
	return &CapabilityError{Kind: ErrInvalidArgument, Capability: name, Reason: reason}
}

func hostFailure(name string, cause error) *CapabilityError {
	return &CapabilityError{Kind: ErrHostFailure, Capability: name, Cause: cause}
}
