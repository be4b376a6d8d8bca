package audio

import (
	"errors"
	"testing"

	"github.com/buddybotics/go-buddy/pkg/audioio"
)

func TestWAVRoundTrip(t *testing.T) {
	pcm := audioio.SamplesToBytes([]int16{0, 100, -100, 32767, -32768})
	data := EncodeWAV(pcm, 22050, 1)

	wav, err := ParseWAV(data)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if wav.SampleRate != 22050 {
		t.Errorf("sample rate = %d, want 22050", wav.SampleRate)
	}
	if wav.Channels != 1 {
		t.Errorf("channels = %d, want 1", wav.Channels)
	}
	if wav.BitDepth != 16 {
		t.Errorf("bit depth = %d, want 16", wav.BitDepth)
	}
	if len(wav.Data) != len(pcm) {
		t.Fatalf("data length = %d, want %d", len(wav.Data), len(pcm))
	}
	for i := range pcm {
		if wav.Data[i] != pcm[i] {
			t.Fatalf("byte %d: got %d, want %d", i, wav.Data[i], pcm[i])
		}
	}
}

func TestParseWAVRejectsGarbage(t *testing.T) {
	if _, err := ParseWAV([]byte("definitely not audio data")); !errors.Is(err, ErrNotWAV) {
		t.Errorf("got %v, want ErrNotWAV", err)
	}
	if _, err := ParseWAV(nil); !errors.Is(err, ErrNotWAV) {
		t.Errorf("got %v, want ErrNotWAV for empty input", err)
	}
}

func TestParseWAVRejectsTruncatedHeader(t *testing.T) {
	data := EncodeWAV(audioio.SamplesToBytes([]int16{1, 2, 3}), 16000, 1)
	if _, err := ParseWAV(data[:16]); err == nil {
		t.Error("expected error for truncated file")
	}
}

func TestParseWAVRejectsNonPCM(t *testing.T) {
	data := EncodeWAV(audioio.SamplesToBytes([]int16{1, 2}), 16000, 1)
	data[20] = 3 // IEEE float format tag
	if _, err := ParseWAV(data); err == nil {
		t.Error("expected error for non-PCM format")
	}
}

func TestParseWAVStereo(t *testing.T) {
	pcm := audioio.SamplesToBytes([]int16{1, 2, 3, 4})
	wav, err := ParseWAV(EncodeWAV(pcm, 44100, 2))
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if wav.Channels != 2 {
		t.Errorf("channels = %d, want 2", wav.Channels)
	}
	if wav.SampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", wav.SampleRate)
	}
}
