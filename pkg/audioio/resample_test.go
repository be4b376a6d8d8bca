package audioio

import "testing"

func TestResampleSameRate(t *testing.T) {
	samples := []int16{1, 2, 3, 4}
	got := Resample(samples, 16000, 16000)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
}

func TestResampleDownsample(t *testing.T) {
	samples := make([]int16, 160)
	got := Resample(samples, 16000, 8000)
	if len(got) != 80 {
		t.Errorf("len = %d, want 80", len(got))
	}
}

func TestResampleUpsample(t *testing.T) {
	samples := make([]int16, 80)
	got := Resample(samples, 8000, 16000)
	if len(got) != 160 {
		t.Errorf("len = %d, want 160", len(got))
	}
}

func TestResampleEmpty(t *testing.T) {
	if got := Resample(nil, 8000, 16000); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestBytesSamplesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	got := BytesToSamples(SamplesToBytes(samples))
	if len(got) != len(samples) {
		t.Fatalf("len = %d, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestChunkDuration(t *testing.T) {
	chunk := AudioChunk{Samples: make([]int16, 16000), SampleRate: 16000, Channels: 1}
	if d := chunk.Duration(); d != 1.0 {
		t.Errorf("duration = %v, want 1.0", d)
	}
}
