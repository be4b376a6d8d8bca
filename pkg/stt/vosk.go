package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Vosk is a Recognizer backed by a vosk-server instance over WebSocket.
//
// The protocol is binary PCM16 frames in, one JSON message out per frame:
// {"partial": "..."} while an utterance is in flight, {"text": "..."} once
// the server commits it. Sending {"eof": 1} flushes the current utterance.
type Vosk struct {
	url        string
	sampleRate int
	phrases    []string
	logger     *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// VoskOption configures a Vosk recognizer.
type VoskOption func(*Vosk)

// WithSampleRate sets the PCM sample rate announced to the server.
func WithSampleRate(rate int) VoskOption {
	return func(v *Vosk) { v.sampleRate = rate }
}

// WithPhraseList restricts recognition to a fixed vocabulary. Used by the
// wake detector to keep the grammar small and the matches crisp.
func WithPhraseList(phrases []string) VoskOption {
	return func(v *Vosk) { v.phrases = phrases }
}

// WithVoskLogger sets the structured logger.
func WithVoskLogger(l *slog.Logger) VoskOption {
	return func(v *Vosk) { v.logger = l }
}

// NewVosk creates a recognizer for the vosk-server at url
// (e.g. "ws://localhost:2700"). Call Connect before Accept.
func NewVosk(url string, opts ...VoskOption) *Vosk {
	v := &Vosk{
		url:        url,
		sampleRate: 16000,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With("component", "stt.vosk")
	return v
}

// Connect dials the server and sends the recognition config.
func (v *Vosk) Connect(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if v.conn != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, v.url, nil)
	if err != nil {
		return fmt.Errorf("stt: dial %s: %w", v.url, err)
	}

	cfg := map[string]any{"sample_rate": v.sampleRate}
	if len(v.phrases) > 0 {
		cfg["phrase_list"] = v.phrases
	}
	if err := conn.WriteJSON(map[string]any{"config": cfg}); err != nil {
		conn.Close()
		return fmt.Errorf("stt: send config: %w", err)
	}

	v.conn = conn
	v.logger.Debug("connected", "url", v.url, "sample_rate", v.sampleRate)
	return nil
}

// Accept feeds one PCM16 chunk and returns the server's hypothesis.
func (v *Vosk) Accept(ctx context.Context, pcm []byte) (Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return Result{}, ErrClosed
	}
	if v.conn == nil {
		return Result{}, ErrNotConnected
	}

	if err := v.write(ctx, websocket.BinaryMessage, pcm); err != nil {
		return Result{}, fmt.Errorf("stt: send audio: %w", err)
	}
	return v.readResult(ctx)
}

// Flush signals end of audio and returns the final committed text.
func (v *Vosk) Flush(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return "", ErrClosed
	}
	if v.conn == nil {
		return "", ErrNotConnected
	}

	if err := v.write(ctx, websocket.TextMessage, []byte(`{"eof" : 1}`)); err != nil {
		return "", fmt.Errorf("stt: send eof: %w", err)
	}
	result, err := v.readResult(ctx)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Reset discards server-side recognition state.
func (v *Vosk) Reset(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if v.conn == nil {
		return nil
	}
	if err := v.write(ctx, websocket.TextMessage, []byte(`{"reset" : 1}`)); err != nil {
		return fmt.Errorf("stt: send reset: %w", err)
	}
	return nil
}

// Close closes the connection. Safe to call more than once.
func (v *Vosk) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true
	if v.conn != nil {
		v.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err := v.conn.Close()
		v.conn = nil
		return err
	}
	return nil
}

func (v *Vosk) write(ctx context.Context, messageType int, data []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		v.conn.SetWriteDeadline(deadline)
	} else {
		v.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	}
	return v.conn.WriteMessage(messageType, data)
}

func (v *Vosk) readResult(ctx context.Context) (Result, error) {
	if deadline, ok := ctx.Deadline(); ok {
		v.conn.SetReadDeadline(deadline)
	} else {
		v.conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	}

	_, data, err := v.conn.ReadMessage()
	if err != nil {
		return Result{}, fmt.Errorf("stt: read result: %w", err)
	}

	var msg struct {
		Partial *string `json:"partial"`
		Text    *string `json:"text"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return Result{}, fmt.Errorf("stt: parse result: %w", err)
	}

	if msg.Text != nil {
		return Result{Text: *msg.Text, Final: true}, nil
	}
	if msg.Partial != nil {
		return Result{Text: *msg.Partial}, nil
	}
	return Result{}, nil
}

var _ Recognizer = (*Vosk)(nil)
