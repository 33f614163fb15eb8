package app

import "sync/atomic"

// ContainerState is the runtime-wide readiness flag of the container
// application. It starts unset and moves to ready exactly once; there is no
// way to clear it.
type ContainerState struct {
	appID string
	ready atomic.Bool
}

// NewContainerState creates the flag for the designated container app
func NewContainerState(appID string) *ContainerState {
	return &ContainerState{appID: appID}
}

// AppID is the designated container application id, possibly empty
func (c *ContainerState) AppID() string { return c.appID }

func (c *ContainerState) Ready() bool { return c.ready.Load() }

// MarkReady sets the flag and reports whether this call made the transition
func (c *ContainerState) MarkReady() bool {
	return c.ready.CompareAndSwap(false, true)
}
