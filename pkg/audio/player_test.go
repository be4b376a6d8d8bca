package audio

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/buddybotics/go-buddy/pkg/audioio"
)

func newTestSink() *audioio.MockSink {
	cfg := audioio.DefaultConfig()
	return audioio.NewMockSink(cfg, nil)
}

// scriptedStream yields the given chunks, then io.EOF.
type scriptedStream struct {
	mu     sync.Mutex
	chunks [][]byte
	pos    int
}

func (s *scriptedStream) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.chunks) {
		return nil, io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

// endlessStream yields small chunks forever, pacing itself so a test
// can interrupt it mid-stream.
type endlessStream struct{}

func (endlessStream) Read() ([]byte, error) {
	time.Sleep(time.Millisecond)
	return audioio.SamplesToBytes([]int16{100, 200, 300}), nil
}

func TestApplyGainClipping(t *testing.T) {
	tests := []struct {
		name string
		in   []int16
		gain float64
		want []int16
	}{
		{"unity", []int16{-100, 0, 100}, 1.0, []int16{-100, 0, 100}},
		{"half", []int16{1000, -1000}, 0.5, []int16{500, -500}},
		{"mute", []int16{1000, -1000}, 0, []int16{0, 0}},
		{"clip high", []int16{30000, 20000}, 2.0, []int16{32767, 32767}},
		{"clip low", []int16{-30000, -20000}, 2.0, []int16{-32768, -32768}},
		{"extreme", []int16{1, -1, 32767, -32768}, 1e9, []int16{32767, -32768, 32767, -32768}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyGain(tt.in, tt.gain)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d samples, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d: got %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestApplyGainNeverWraps(t *testing.T) {
	in := []int16{math.MaxInt16, math.MinInt16, 12345, -12345, 1, -1, 0}
	for _, gain := range []float64{0, 0.1, 1, 1.5, 2, 10, 1000, 1e12} {
		for i, s := range applyGain(in, gain) {
			if in[i] > 0 && s < 0 {
				t.Errorf("gain %g wrapped positive sample %d to %d", gain, in[i], s)
			}
			if in[i] < 0 && s > 0 {
				t.Errorf("gain %g wrapped negative sample %d to %d", gain, in[i], s)
			}
		}
	}
}

func TestPlayWritesAllSamples(t *testing.T) {
	sink := newTestSink()
	player := NewPlayer(sink)

	in := make([]int16, 1000)
	for i := range in {
		in[i] = int16(i)
	}
	if err := player.Play(context.Background(), audioio.SamplesToBytes(in), sink.Config().SampleRate); err != nil {
		t.Fatalf("Play: %v", err)
	}

	got := sink.WrittenSamples()
	if len(got) != len(in) {
		t.Fatalf("wrote %d samples, want %d", len(got), len(in))
	}
	for i := range got {
		if got[i] != in[i] {
			t.Fatalf("sample %d: got %d, want %d", i, got[i], in[i])
		}
	}
	if player.Playing() {
		t.Error("still playing after Play returned")
	}
}

func TestPlayAppliesGain(t *testing.T) {
	sink := newTestSink()
	player := NewPlayer(sink, WithGain(2.0))

	in := []int16{100, -100, 30000}
	if err := player.Play(context.Background(), audioio.SamplesToBytes(in), sink.Config().SampleRate); err != nil {
		t.Fatalf("Play: %v", err)
	}

	got := sink.WrittenSamples()
	want := []int16{200, -200, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPlayResamplesToSinkRate(t *testing.T) {
	sink := newTestSink() // 16kHz
	player := NewPlayer(sink)

	in := make([]int16, 800) // 100ms at 8kHz
	if err := player.Play(context.Background(), audioio.SamplesToBytes(in), 8000); err != nil {
		t.Fatalf("Play: %v", err)
	}

	got := len(sink.WrittenSamples())
	if got < 1500 || got > 1700 {
		t.Errorf("got %d samples after resampling, want about 1600", got)
	}
	for _, chunk := range sink.Written() {
		if chunk.SampleRate != sink.Config().SampleRate {
			t.Errorf("chunk at %d Hz, want %d", chunk.SampleRate, sink.Config().SampleRate)
		}
	}
}

func TestSetGainClampsNegative(t *testing.T) {
	player := NewPlayer(newTestSink())
	player.SetGain(-3)
	if g := player.Gain(); g != 0 {
		t.Errorf("gain = %g, want 0", g)
	}
}

func TestPlayStream(t *testing.T) {
	sink := newTestSink()
	player := NewPlayer(sink)

	stream := &scriptedStream{chunks: [][]byte{
		audioio.SamplesToBytes([]int16{1, 2, 3}),
		audioio.SamplesToBytes([]int16{4, 5}),
	}}
	if err := player.PlayStream(context.Background(), stream, sink.Config().SampleRate); err != nil {
		t.Fatalf("PlayStream: %v", err)
	}

	got := sink.WrittenSamples()
	want := []int16{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestStopFlushesBufferedAudio(t *testing.T) {
	sink := newTestSink()
	player := NewPlayer(sink)

	errCh := make(chan error, 1)
	go func() {
		errCh <- player.PlayStream(context.Background(), endlessStream{}, sink.Config().SampleRate)
	}()

	waitFor(t, func() bool { return len(sink.Written()) > 0 })
	player.Stop()

	if err := <-errCh; err != nil {
		t.Fatalf("PlayStream after Stop: %v", err)
	}
	if sink.Cleared() != 0 {
		t.Error("Stop discarded buffered audio, want flush")
	}
	if player.Playing() {
		t.Error("still playing after Stop")
	}
}

func TestStopNowDiscardsBufferedAudio(t *testing.T) {
	sink := newTestSink()
	player := NewPlayer(sink)

	errCh := make(chan error, 1)
	go func() {
		errCh <- player.PlayStream(context.Background(), endlessStream{}, sink.Config().SampleRate)
	}()

	waitFor(t, func() bool { return len(sink.Written()) > 0 })
	player.StopNow()

	if err := <-errCh; err != nil {
		t.Fatalf("PlayStream after StopNow: %v", err)
	}
	if sink.Cleared() != 1 {
		t.Errorf("Clear called %d times, want 1", sink.Cleared())
	}
}

func TestPlayRejectsConcurrentPlayback(t *testing.T) {
	sink := newTestSink()
	player := NewPlayer(sink)

	go player.PlayStream(context.Background(), endlessStream{}, sink.Config().SampleRate)
	waitFor(t, func() bool { return player.Playing() })

	err := player.Play(context.Background(), audioio.SamplesToBytes([]int16{1}), sink.Config().SampleRate)
	if err == nil {
		t.Error("second Play succeeded during playback")
	}
	player.StopNow()
}

func TestPlayAsyncStopsPrevious(t *testing.T) {
	sink := newTestSink()
	player := NewPlayer(sink)

	go player.PlayStream(context.Background(), endlessStream{}, sink.Config().SampleRate)
	waitFor(t, func() bool { return player.Playing() })

	player.PlayAsync(audioio.SamplesToBytes([]int16{7, 8, 9}), sink.Config().SampleRate)
	waitFor(t, func() bool { return !player.Playing() })
}

func TestPlayFile(t *testing.T) {
	sink := newTestSink()
	player := NewPlayer(sink)

	in := []int16{10, 20, 30, 40}
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, EncodeWAV(audioio.SamplesToBytes(in), sink.Config().SampleRate, 1), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := player.PlayFile(context.Background(), path); err != nil {
		t.Fatalf("PlayFile: %v", err)
	}
	got := sink.WrittenSamples()
	if len(got) != len(in) {
		t.Fatalf("got %d samples, want %d", len(got), len(in))
	}
}

func TestPlayFileMissing(t *testing.T) {
	player := NewPlayer(newTestSink())
	if err := player.PlayFile(context.Background(), "/nonexistent/clip.wav"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMixToMono(t *testing.T) {
	stereo := audioio.SamplesToBytes([]int16{100, 200, -100, -200})
	mono := audioio.BytesToSamples(mixToMono(stereo, 2))
	want := []int16{150, -150}
	if len(mono) != len(want) {
		t.Fatalf("got %d samples, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, mono[i], want[i])
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
