package store

import (
	"context"
	"sync"
)

// DefaultSessionFlagKey is the process-lifetime key for the session-is-new flag.
const DefaultSessionFlagKey = "shopsync:sessionIsNew"

// SessionFlag holds sessionIsNew: true from process start until the first
// successful renewal or sign-in. It lives in a process-lifetime backend and is
// never written to durable storage.
type SessionFlag struct {
	mu      sync.Mutex
	backend *MemoryBackend
	key     string
}

// NewSessionFlag creates a flag stored under key in backend.
// A missing value reads as true.
func NewSessionFlag(backend *MemoryBackend, key string) *SessionFlag {
	if key == "" {
		key = DefaultSessionFlagKey
	}
	return &SessionFlag{backend: backend, key: key}
}

// IsNew reports the current flag value.
func (f *SessionFlag) IsNew() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

// Set stores v.
func (f *SessionFlag) Set(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store(v)
}

// Claim atomically flips the flag from true to false and reports whether this
// call did the flip. At most one caller per true period gets true.
func (f *SessionFlag) Claim() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.load() {
		return false
	}
	f.store(false)
	return true
}

func (f *SessionFlag) load() bool {
	data, ok, _ := f.backend.Load(context.Background(), f.key)
	if !ok {
		return true
	}
	return string(data) == "true"
}

func (f *SessionFlag) store(v bool) {
	val := "false"
	if v {
		val = "true"
	}
	_ = f.backend.Save(context.Background(), f.key, []byte(val))
}
