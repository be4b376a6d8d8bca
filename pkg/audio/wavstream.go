package audio

import "bytes"

// wavStream strips the RIFF container header from a chunked WAV byte
// stream, yielding raw PCM. Chunks arriving before the data marker is
// located are buffered.
type wavStream struct {
	inner      ChunkReader
	header     []byte
	headerDone bool
}

// StripWAVHeader wraps a stream of WAV container bytes so that only
// the PCM payload comes out.
func StripWAVHeader(inner ChunkReader) ChunkReader {
	return &wavStream{inner: inner}
}

func (w *wavStream) Read() ([]byte, error) {
	chunk, err := w.inner.Read()
	if w.headerDone {
		return chunk, err
	}

	w.header = append(w.header, chunk...)
	idx := bytes.Index(w.header, []byte("data"))
	if idx >= 0 && len(w.header) >= idx+8 {
		w.headerDone = true
		pcm := w.header[idx+8:]
		w.header = nil
		return pcm, err
	}
	if err != nil {
		// Stream ended before a data chunk appeared; pass through
		// whatever we have rather than swallow it.
		pcm := w.header
		w.header = nil
		return pcm, err
	}
	return nil, nil
}
