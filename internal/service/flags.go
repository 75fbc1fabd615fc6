package service

import "sync"

// Flags are named boolean switches that change server behavior at runtime,
// toggled over HTTP. The only flag the server itself consumes is "throttle",
// which delays every response to simulate a slow connection.
type Flags struct {
	mu sync.RWMutex
	m  map[string]bool
}

// FlagThrottle delays responses by a random 500-1000ms when enabled.
const FlagThrottle = "throttle"

// NewFlags returns a flag set with everything off.
func NewFlags() *Flags {
	return &Flags{m: map[string]bool{}}
}

// Get reports whether a flag is on. Unknown flags are off.
func (f *Flags) Get(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.m[name]
}

// Set turns a single flag on or off.
func (f *Flags) Set(name string, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[name] = on
}

// Apply sets every flag present in the body, ignoring non-boolean values.
func (f *Flags) Apply(body map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, v := range body {
		if on, ok := v.(bool); ok {
			f.m[name] = on
		}
	}
}
