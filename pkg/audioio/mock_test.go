package audioio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestMockSourceScript(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendMock

	chunk := AudioChunk{Samples: []int16{1, 2, 3}, SampleRate: 16000, Channels: 1}
	src := NewMockSource(cfg, nil, WithScript(chunk, chunk))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := src.Read(ctx)
		if err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
		if len(got.Samples) != 3 {
			t.Errorf("chunk %d samples = %d, want 3", i, len(got.Samples))
		}
	}

	// Script exhausted: the source stops itself.
	_, err := src.Read(ctx)
	if !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestMockSourceStartIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	src := NewMockSource(cfg, nil)
	defer src.Close()

	ctx := context.Background()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := src.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	src.Stop()
	if err := src.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestMockSinkRecordsWrites(t *testing.T) {
	cfg := DefaultConfig()
	sink := NewMockSink(cfg, nil)
	defer sink.Close()

	ctx := context.Background()
	if err := sink.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	chunk := AudioChunk{Samples: []int16{5, 6}, SampleRate: 16000, Channels: 1}
	if err := sink.Write(ctx, chunk); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := sink.WrittenSamples()
	if len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Errorf("written = %v, want [5 6]", got)
	}
}

func TestMockSinkWriteAfterClose(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	sink.Close()
	err := sink.Write(context.Background(), AudioChunk{})
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("err = %v, want io.ErrClosedPipe", err)
	}
}

func TestFactoryMockBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendMock

	src, err := NewSource(cfg, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if src.Name() != "mock" {
		t.Errorf("name = %q, want mock", src.Name())
	}

	sink, err := NewSink(cfg, nil)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	if sink.Name() != "mock" {
		t.Errorf("name = %q, want mock", sink.Name())
	}
}
