// Package vdp assembles the coprocessor core: the buffered command
// interpreter and the audio command channel over a shared block store.
//
// Commands arrive as VDU byte streams (framed 23, 0, &A0 for buffered
// commands and 23, 0, &85 for audio commands); status packets flow back over
// the packet transport supplied by the caller.
package vdp

import (
	"github.com/govdp/vdp/pkg/audio"
	"github.com/govdp/vdp/pkg/buffer"
	"github.com/govdp/vdp/pkg/interp"
	"github.com/govdp/vdp/pkg/stream"
)

// Config carries processor construction options. The zero value gives the
// defaults: 3 enabled channels of 32, 16384 Hz output, and no packet
// transport (status packets are dropped).
type Config struct {
	// EnabledChannels is the number of channels enabled at startup.
	EnabledChannels int
	// SampleRate is the engine output rate in Hz.
	SampleRate int
	// Transport receives status packets. May be nil.
	Transport stream.PacketWriter
}

// Processor is the top-level command-stream processor.
type Processor struct {
	store   *buffer.Store
	samples *audio.SampleStore
	engine  *audio.Engine
	out     *stream.Output
	audio   *audio.Dispatcher
}

// New builds a processor with its stores, engine and dispatcher wired
// together.
func New(cfg Config) *Processor {
	if cfg.EnabledChannels == 0 {
		cfg.EnabledChannels = audio.DefaultChannels
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}

	store := buffer.NewStore()
	samples := audio.NewSampleStore()
	engine := audio.NewEngine(cfg.SampleRate, cfg.EnabledChannels)
	store.AddCollaborator(samples)
	store.AddCollaborator(engine)

	return &Processor{
		store:   store,
		samples: samples,
		engine:  engine,
		out:     stream.NewOutput(cfg.Transport),
		audio:   audio.NewDispatcher(engine, store, samples),
	}
}

// Store exposes the block store.
func (p *Processor) Store() *buffer.Store {
	return p.store
}

// Samples exposes the sample store.
func (p *Processor) Samples() *audio.SampleStore {
	return p.samples
}

// Engine exposes the audio engine, e.g. to attach a playback device.
func (p *Processor) Engine() *audio.Engine {
	return p.engine
}

// Process drains src, executing every command frame it contains. It returns
// when the source is exhausted.
func (p *Processor) Process(src stream.ByteSource) {
	interp.New(p.store, p.audio, src, p.out).ProcessAll()
}

// ProcessBytes executes a complete in-memory command sequence.
func (p *Processor) ProcessBytes(data []byte) {
	p.Process(stream.NewQueueSource(data))
}

// Shutdown stops all channel workers.
func (p *Processor) Shutdown() {
	p.engine.Shutdown()
}
