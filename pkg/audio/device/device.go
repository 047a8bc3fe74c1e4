// Package device provides playback backends for the audio engine. The DAC
// itself stays behind the Device interface; backends pull mono signed 16-bit
// frames from a render callback.
package device

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var errInvalidState = errors.New("device: invalid state transition")

// RenderFunc fills buf with the next frame of output.
type RenderFunc func(buf []int16)

// Device is a playback backend.
type Device interface {
	Open() error
	Start(render RenderFunc) error
	Stop() error
	Close() error
}

// Manager tracks registered playback devices by generated ID.
type Manager struct {
	mu      sync.Mutex
	devices map[string]Device
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{devices: make(map[string]Device)}
}

// Register adds a device and returns its assigned ID.
func (m *Manager) Register(d Device) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.devices[id] = d
	m.mu.Unlock()
	return id
}

// Get returns the device registered under id.
func (m *Manager) Get(id string) (Device, bool) {
	m.mu.Lock()
	d, ok := m.devices[id]
	m.mu.Unlock()
	return d, ok
}

// Query returns all registered devices.
func (m *Manager) Query() []Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		results = append(results, d)
	}
	return results
}
