package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"

	"github.com/buddybotics/go-buddy/pkg/audioio"
)

// OpusDecodedRate is the sample rate opus streams decode to.
const OpusDecodedRate = 48000

// opusFrameSamples is the largest opus frame: 120ms at 48kHz.
const opusFrameSamples = 5760

// DecodeOpus wraps an ogg-opus chunk stream and yields 16-bit mono PCM
// at OpusDecodedRate. The stream headers are parsed up front, so the
// wrapper reads from r before returning. Callers own the Close.
func DecodeOpus(r ChunkReader) (*OpusStream, error) {
	stream, err := opus.NewStream(&chunkByteReader{src: r})
	if err != nil {
		return nil, fmt.Errorf("open opus stream: %w", err)
	}
	return &OpusStream{
		stream: stream,
		pcm:    make([]int16, opusFrameSamples),
	}, nil
}

// DecodeOpusAll decodes a complete ogg-opus buffer to PCM bytes.
func DecodeOpusAll(data []byte) ([]byte, error) {
	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open opus stream: %w", err)
	}
	defer stream.Close()

	pcm := make([]int16, opusFrameSamples)
	var out []byte
	for {
		n, err := stream.Read(pcm)
		if n > 0 {
			out = append(out, audioio.SamplesToBytes(pcm[:n])...)
		}
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode opus: %w", err)
		}
	}
}

// OpusStream decodes ogg-opus frames as they are pulled.
type OpusStream struct {
	stream *opus.Stream
	pcm    []int16
}

// Read returns the next decoded PCM chunk. io.EOF ends the stream.
func (o *OpusStream) Read() ([]byte, error) {
	for {
		n, err := o.stream.Read(o.pcm)
		if n > 0 {
			return audioio.SamplesToBytes(o.pcm[:n]), nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("decode opus: %w", err)
		}
	}
}

// Close releases the decoder.
func (o *OpusStream) Close() error {
	return o.stream.Close()
}

var _ ChunkReader = (*OpusStream)(nil)

// chunkByteReader adapts a ChunkReader to io.Reader for the opus
// stream parser.
type chunkByteReader struct {
	src ChunkReader
	buf []byte
	err error
}

func (c *chunkByteReader) Read(p []byte) (int, error) {
	for len(c.buf) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		c.buf, c.err = c.src.Read()
	}
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, nil
}
