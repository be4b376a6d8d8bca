package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// WAV holds the decoded contents of a PCM WAV file.
type WAV struct {
	SampleRate int
	Channels   int
	BitDepth   int

	// Data is the raw little-endian PCM payload.
	Data []byte
}

// ErrNotWAV means the data does not carry a RIFF/WAVE header.
var ErrNotWAV = errors.New("audio: not a wav file")

// ParseWAV decodes a 16-bit PCM WAV file.
func ParseWAV(data []byte) (*WAV, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var w WAV
	var haveFmt bool
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("audio: short fmt chunk (%d bytes)", size)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("audio: unsupported wav format %d, want PCM", format)
			}
			w.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			w.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			w.BitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			w.Data = data[body : body+size]
		}

		pos = body + size
		if size%2 == 1 {
			pos++ // chunks are word aligned
		}
	}

	if !haveFmt || w.Data == nil {
		return nil, errors.New("audio: wav missing fmt or data chunk")
	}
	if w.BitDepth != 16 {
		return nil, fmt.Errorf("audio: unsupported bit depth %d, want 16", w.BitDepth)
	}
	return &w, nil
}

// EncodeWAV wraps raw 16-bit PCM in a WAV container.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	var buf bytes.Buffer
	dataLen := uint32(len(pcm))
	byteRate := uint32(sampleRate * channels * 2)
	blockAlign := uint16(channels * 2)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(pcm)
	return buf.Bytes()
}
