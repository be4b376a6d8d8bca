// Package stt provides speech-to-text: incremental recognition against a
// vosk-server instance, one-shot and streaming listening over an audio
// source, and wake-word detection.
//
// The listening flow is split in two layers. A Recognizer turns PCM16
// audio into partial and final transcript hypotheses. A Listener drives a
// Recognizer from an audioio.Source and shapes the hypotheses into the
// event stream callers consume. WakeDetector runs the same machinery in
// the background against a small wake-phrase vocabulary.
package stt

import "context"

// Result is one incremental recognition hypothesis.
type Result struct {
	// Text is the recognized text. A partial hypothesis while Final is
	// false, a committed utterance once Final is true.
	Text string

	// Final reports whether the recognizer committed an utterance.
	Final bool
}

// Event is one item of a streaming listen.
// While Done is false, Partial carries the current hypothesis. The stream
// ends with at most one Done event carrying the committed transcript.
type Event struct {
	Done    bool   `json:"done"`
	Partial string `json:"partial,omitempty"`
	Final   string `json:"final,omitempty"`
}

// Recognizer performs incremental speech recognition.
type Recognizer interface {
	// Accept feeds one chunk of PCM16 mono audio and returns the current
	// hypothesis.
	Accept(ctx context.Context, pcm []byte) (Result, error)

	// Flush signals end of audio and returns the final committed text.
	Flush(ctx context.Context) (string, error)

	// Reset discards recognition state so the next Accept starts a
	// fresh utterance.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}
