package audio

import (
	"io"
	"testing"
)

func TestDecodeOpusRejectsGarbage(t *testing.T) {
	stream := &scriptedStream{chunks: [][]byte{
		[]byte("this is"),
		[]byte(" not an ogg stream"),
	}}
	if _, err := DecodeOpus(stream); err == nil {
		t.Fatal("DecodeOpus accepted garbage input")
	}
}

func TestDecodeOpusEmptyStream(t *testing.T) {
	if _, err := DecodeOpus(&scriptedStream{}); err == nil {
		t.Fatal("DecodeOpus accepted empty input")
	}
}

func TestDecodeOpusAllRejectsGarbage(t *testing.T) {
	if _, err := DecodeOpusAll([]byte("RIFF definitely not opus")); err == nil {
		t.Fatal("DecodeOpusAll accepted garbage input")
	}
}

func TestChunkByteReaderDrainsChunks(t *testing.T) {
	src := &scriptedStream{chunks: [][]byte{
		[]byte("abc"),
		[]byte("defgh"),
	}}
	r := &chunkByteReader{src: src}

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "abcdefgh" {
		t.Errorf("read %q, want abcdefgh", got)
	}
}

func TestChunkByteReaderSmallDestination(t *testing.T) {
	src := &scriptedStream{chunks: [][]byte{[]byte("abcdef")}}
	r := &chunkByteReader{src: src}

	buf := make([]byte, 2)
	var out []byte
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if string(out) != "abcdef" {
		t.Errorf("read %q, want abcdef", out)
	}
}
