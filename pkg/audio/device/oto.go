package device

import (
	"encoding/binary"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Oto is a pure-Go playback device backed by the oto library.
type Oto struct {
	sampleRate int

	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
	opened bool
}

// NewOto returns an unopened oto playback device at the given rate.
func NewOto(sampleRate int) *Oto {
	return &Oto{sampleRate: sampleRate}
}

// Open implements Device.
func (d *Oto) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opened {
		return errInvalidState
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   d.sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return err
	}
	<-ready
	d.ctx = ctx
	d.opened = true
	return nil
}

// renderReader adapts a RenderFunc to the io.Reader oto players consume.
type renderReader struct {
	render RenderFunc
	frame  []int16
}

func (r *renderReader) Read(p []byte) (int, error) {
	n := len(p) / 2
	if n == 0 {
		return 0, nil
	}
	if cap(r.frame) < n {
		r.frame = make([]int16, n)
	}
	r.frame = r.frame[:n]
	r.render(r.frame)
	for i, v := range r.frame {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(v))
	}
	return n * 2, nil
}

// Start implements Device.
func (d *Oto) Start(render RenderFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened || d.player != nil {
		return errInvalidState
	}
	d.player = d.ctx.NewPlayer(&renderReader{render: render})
	d.player.Play()
	return nil
}

// Stop implements Device.
func (d *Oto) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil {
		return errInvalidState
	}
	err := d.player.Close()
	d.player = nil
	return err
}

// Close implements Device. The underlying oto context cannot be torn down;
// closing just stops playback.
func (d *Oto) Close() error {
	d.mu.Lock()
	player := d.player
	d.player = nil
	d.opened = false
	d.mu.Unlock()
	if player != nil {
		return player.Close()
	}
	return nil
}
