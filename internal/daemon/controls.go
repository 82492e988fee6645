package daemon

import "sync"

// Controls holds the externally triggered operational toggles. Pause and
// force-run are consulted by the scheduler only at cycle-start boundaries;
// an in-flight cycle always runs to completion.
type Controls struct {
	mu              sync.Mutex
	pausedGlobal    bool
	pausedInstances map[string]bool
	forceRuns       map[string]bool
	dryRun          bool
}

// NewControls returns an all-clear control set.
func NewControls() *Controls {
	return &Controls{
		pausedInstances: make(map[string]bool),
		forceRuns:       make(map[string]bool),
	}
}

// Paused reports whether hunting is paused globally or for the instance.
func (c *Controls) Paused(instance string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pausedGlobal || c.pausedInstances[instance]
}

// GloballyPaused reports the global pause flag alone.
func (c *Controls) GloballyPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pausedGlobal
}

// SetGlobalPause toggles the global pause flag.
func (c *Controls) SetGlobalPause(paused bool) {
	c.mu.Lock()
	c.pausedGlobal = paused
	c.mu.Unlock()
}

// SetInstancePause toggles the pause flag for one instance.
func (c *Controls) SetInstancePause(instance string, paused bool) {
	c.mu.Lock()
	if paused {
		c.pausedInstances[instance] = true
	} else {
		delete(c.pausedInstances, instance)
	}
	c.mu.Unlock()
}

// InstancePaused reports the instance-specific pause flag alone.
func (c *Controls) InstancePaused(instance string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pausedInstances[instance]
}

// RequestForceRun queues a force-run signal for the instance.
func (c *Controls) RequestForceRun(instance string) {
	c.mu.Lock()
	c.forceRuns[instance] = true
	c.mu.Unlock()
}

// ForceRunPending reports whether a force-run signal is waiting.
func (c *Controls) ForceRunPending(instance string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forceRuns[instance]
}

// ConsumeForceRun takes the pending signal, returning false when none was set.
func (c *Controls) ConsumeForceRun(instance string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.forceRuns[instance] {
		return false
	}
	delete(c.forceRuns, instance)
	return true
}

// SetDryRun toggles the global dry-run flag.
func (c *Controls) SetDryRun(enabled bool) {
	c.mu.Lock()
	c.dryRun = enabled
	c.mu.Unlock()
}

// DryRun reports the global dry-run flag.
func (c *Controls) DryRun() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dryRun
}
