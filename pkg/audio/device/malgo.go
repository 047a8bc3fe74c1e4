package device

import (
	"encoding/binary"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/govdp/vdp/internal/logging"
)

var logger = logging.NewLogger("vdp/device")

// Malgo is a playback device backed by miniaudio.
type Malgo struct {
	sampleRate uint32

	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	opened bool
}

// NewMalgo returns an unopened miniaudio playback device at the given rate.
func NewMalgo(sampleRate uint32) *Malgo {
	return &Malgo{sampleRate: sampleRate}
}

// Open implements Device.
func (d *Malgo) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opened {
		return errInvalidState
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debugf("%v", message)
	})
	if err != nil {
		return err
	}
	d.ctx = ctx
	d.opened = true
	return nil
}

// Start implements Device.
func (d *Malgo) Start(render RenderFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened || d.device != nil {
		return errInvalidState
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = d.sampleRate

	var frame []int16
	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			if cap(frame) < int(frameCount) {
				frame = make([]int16, frameCount)
			}
			frame = frame[:frameCount]
			render(frame)
			for i, v := range frame {
				binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
			}
		},
	}

	dev, err := malgo.InitDevice(d.ctx.Context, config, callbacks)
	if err != nil {
		return err
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return err
	}
	d.device = dev
	return nil
}

// Stop implements Device.
func (d *Malgo) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return errInvalidState
	}
	err := d.device.Stop()
	d.device.Uninit()
	d.device = nil
	return err
}

// Close implements Device.
func (d *Malgo) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device != nil {
		d.device.Uninit()
		d.device = nil
	}
	if d.ctx != nil {
		err := d.ctx.Uninit()
		d.ctx.Free()
		d.ctx = nil
		d.opened = false
		return err
	}
	d.opened = false
	return nil
}
