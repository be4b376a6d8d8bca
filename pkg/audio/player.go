// Package audio provides buffered playback of PCM audio through an
// output device, with sample-wise gain control.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/buddybotics/go-buddy/pkg/audioio"
)

// ChunkReader yields raw PCM chunks until it returns io.EOF. The
// tts package's AudioStream satisfies this.
type ChunkReader interface {
	Read() ([]byte, error)
}

// Player plays PCM audio through an audioio.Sink. A single Player owns
// its sink; no two playback operations run against it concurrently.
// An asynchronous play always stops the previous one first.
type Player struct {
	sink   audioio.Sink
	logger *slog.Logger

	mu      sync.Mutex
	gain    float64
	playing bool
	cancel  context.CancelFunc
	discard bool
	done    chan struct{}
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithGain sets the initial gain. Values below zero are clamped to zero.
func WithGain(gain float64) PlayerOption {
	return func(p *Player) { p.gain = clampGain(gain) }
}

// WithPlayerLogger sets the logger.
func WithPlayerLogger(logger *slog.Logger) PlayerOption {
	return func(p *Player) { p.logger = logger }
}

// NewPlayer creates a player writing to the given sink.
func NewPlayer(sink audioio.Sink, opts ...PlayerOption) *Player {
	p := &Player{
		sink: sink,
		gain: 1.0,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", "player")
	return p
}

// SetGain updates the gain applied to subsequent samples. Negative
// values are clamped to zero.
func (p *Player) SetGain(gain float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gain = clampGain(gain)
}

// Gain returns the current gain.
func (p *Player) Gain() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gain
}

// Play plays raw 16-bit mono PCM synchronously. It blocks until the
// audio has been written and flushed, or the context is cancelled.
func (p *Player) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	ctx, finish, err := p.begin(ctx)
	if err != nil {
		return err
	}
	defer finish()
	return p.playBytes(ctx, pcm, sampleRate)
}

// PlayStream plays chunks from the reader as they arrive. It blocks
// until the stream ends or the context is cancelled.
func (p *Player) PlayStream(ctx context.Context, stream ChunkReader, sampleRate int) error {
	ctx, finish, err := p.begin(ctx)
	if err != nil {
		return err
	}
	defer finish()

	for {
		if err := ctx.Err(); err != nil {
			return p.endPlayback(ctx, err)
		}
		chunk, err := stream.Read()
		if len(chunk) > 0 {
			if werr := p.writeChunk(ctx, chunk, sampleRate); werr != nil {
				return werr
			}
		}
		if err != nil {
			if isEOF(err) {
				return p.endPlayback(ctx, nil)
			}
			return err
		}
	}
}

// PlayFile plays a 16-bit PCM WAV file synchronously.
func (p *Player) PlayFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read audio file: %w", err)
	}
	wav, err := ParseWAV(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	pcm := wav.Data
	if wav.Channels > 1 {
		pcm = mixToMono(pcm, wav.Channels)
	}
	return p.Play(ctx, pcm, wav.SampleRate)
}

// PlayAsync stops any ongoing playback, then plays the PCM in the
// background. Errors surface only in the log.
func (p *Player) PlayAsync(pcm []byte, sampleRate int) {
	p.Stop()
	go func() {
		if err := p.Play(context.Background(), pcm, sampleRate); err != nil {
			p.logger.Warn("async playback failed", "error", err)
		}
	}()
}

// PlayFileAsync stops any ongoing playback, then plays the file in the
// background.
func (p *Player) PlayFileAsync(path string) {
	p.Stop()
	go func() {
		if err := p.PlayFile(context.Background(), path); err != nil {
			p.logger.Warn("async playback failed", "path", path, "error", err)
		}
	}()
}

// Stop interrupts any ongoing playback. Audio already handed to the
// sink still plays out; only un-read input is dropped.
func (p *Player) Stop() {
	p.stop(false)
}

// StopNow interrupts any ongoing playback and discards buffered audio
// immediately.
func (p *Player) StopNow() {
	p.stop(true)
}

// Playing reports whether a playback operation is in progress.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Close stops playback and closes the underlying sink.
func (p *Player) Close() error {
	p.StopNow()
	return p.sink.Close()
}

func (p *Player) stop(discard bool) {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	p.discard = discard
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		p.logger.Warn("playback did not stop in time")
	}
}

// begin claims the player for a single playback operation. The second
// playback waits for the first to release the sink.
func (p *Player) begin(ctx context.Context) (context.Context, func(), error) {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return nil, nil, fmt.Errorf("playback already in progress")
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.playing = true
	p.cancel = cancel
	p.discard = false
	p.done = done
	p.mu.Unlock()

	if err := p.sink.Start(runCtx); err != nil {
		p.release(cancel, done)
		return nil, nil, fmt.Errorf("start output: %w", err)
	}

	finish := func() {
		if err := p.sink.Stop(); err != nil {
			p.logger.Warn("stop output", "error", err)
		}
		p.release(cancel, done)
	}
	return runCtx, finish, nil
}

func (p *Player) release(cancel context.CancelFunc, done chan struct{}) {
	cancel()
	p.mu.Lock()
	p.playing = false
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()
	close(done)
}

func (p *Player) playBytes(ctx context.Context, pcm []byte, sampleRate int) error {
	step := p.sink.Config().BufferBytes()
	if step <= 0 {
		step = 4096
	}
	for off := 0; off < len(pcm); off += step {
		if err := ctx.Err(); err != nil {
			return p.endPlayback(ctx, err)
		}
		end := off + step
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := p.writeChunk(ctx, pcm[off:end], sampleRate); err != nil {
			return err
		}
	}
	return p.endPlayback(ctx, nil)
}

// endPlayback finishes a playback operation. On a plain stop the sink
// flushes what it still holds; a discarding stop clears it instead.
func (p *Player) endPlayback(ctx context.Context, cause error) error {
	p.mu.Lock()
	discard := p.discard
	p.mu.Unlock()

	if discard {
		if err := p.sink.Clear(); err != nil {
			return fmt.Errorf("clear output: %w", err)
		}
		return nil
	}
	flushCtx := ctx
	if flushCtx.Err() != nil {
		var cancel context.CancelFunc
		flushCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := p.sink.Flush(flushCtx); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

func (p *Player) writeChunk(ctx context.Context, pcm []byte, sampleRate int) error {
	samples := audioio.BytesToSamples(pcm)

	p.mu.Lock()
	gain := p.gain
	p.mu.Unlock()
	if gain != 1.0 {
		samples = applyGain(samples, gain)
	}

	sinkRate := p.sink.Config().SampleRate
	if sampleRate > 0 && sinkRate > 0 && sampleRate != sinkRate {
		samples = audioio.Resample(samples, sampleRate, sinkRate)
		sampleRate = sinkRate
	}

	chunk := audioio.AudioChunk{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   1,
	}
	if err := p.sink.Write(ctx, chunk); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// applyGain scales samples by gain, saturating at the int16 range
// instead of wrapping.
func applyGain(samples []int16, gain float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := float64(s) * gain
		switch {
		case v > math.MaxInt16:
			out[i] = math.MaxInt16
		case v < math.MinInt16:
			out[i] = math.MinInt16
		default:
			out[i] = int16(v)
		}
	}
	return out
}

// mixToMono averages interleaved channels down to one.
func mixToMono(pcm []byte, channels int) []byte {
	samples := audioio.BytesToSamples(pcm)
	frames := len(samples) / channels
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(samples[i*channels+c])
		}
		mono[i] = int16(sum / channels)
	}
	return audioio.SamplesToBytes(mono)
}

func clampGain(g float64) float64 {
	if g < 0 {
		return 0
	}
	return g
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
