package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Stream starts a streaming chat completion. Chunks arrive via Recv until
// the stream finishes or the context is cancelled.
func (c *Client) Stream(ctx context.Context, msgs []Message) (Stream, error) {
	resp, err := c.post(ctx, msgs, true)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.parseError(resp)
	}

	return &clientStream{
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
		wire:    c.config.wireFormat(),
		vendor:  c.config.Vendor,
	}, nil
}

// clientStream decodes a streaming response body chunk by chunk. SSE bodies
// carry "data:" events; Ollama bodies carry one JSON object per line.
type clientStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	wire    wire
	vendor  Vendor

	mu      sync.Mutex
	closed  bool
	yielded int
	raw     bytes.Buffer
}

// Recv returns the next chunk. The final chunk has Done set; any call after
// that returns io.EOF. Malformed chunks are skipped, not surfaced.
func (s *clientStream) Recv() (StreamChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return StreamChunk{}, ErrStreamClosed
	}

	for s.scanner.Scan() {
		line := s.scanner.Text()
		s.raw.WriteString(line)
		s.raw.WriteByte('\n')

		if s.wire == wireOllama {
			chunk, ok, err := s.decodeOllamaLine(line)
			if err != nil {
				return StreamChunk{}, err
			}
			if !ok {
				continue
			}
			if chunk.Delta != "" {
				s.yielded++
			}
			return chunk, nil
		}

		chunk, ok := s.decodeSSELine(line)
		if !ok {
			continue
		}
		if chunk.Delta != "" {
			s.yielded++
		}
		return chunk, nil
	}

	if err := s.scanner.Err(); err != nil {
		return StreamChunk{}, wrapError(s.vendor, err)
	}

	// A stream that ended without producing any content may be a vendor
	// error payload sent with a 200 status. Only detectable here, after
	// the body is fully read.
	if s.yielded == 0 {
		if apiErr, ok := decodeErrorPayload(bytes.TrimSpace(s.raw.Bytes())); ok {
			apiErr.Vendor = s.vendor
			return StreamChunk{}, apiErr
		}
	}

	return StreamChunk{Done: true}, io.EOF
}

// decodeSSELine parses one SSE line. Lines that are not data events, or
// whose payloads do not parse, are skipped.
func (s *clientStream) decodeSSELine(line string) (StreamChunk, bool) {
	data, found := strings.CutPrefix(line, "data:")
	if !found {
		return StreamChunk{}, false
	}
	data = strings.TrimSpace(data)

	if data == "[DONE]" {
		return StreamChunk{Done: true}, true
	}

	var event struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if json.Unmarshal([]byte(data), &event) != nil || len(event.Choices) == 0 {
		return StreamChunk{}, false
	}

	return StreamChunk{
		Delta: event.Choices[0].Delta.Content,
		Done:  event.Choices[0].FinishReason != "",
	}, true
}

// decodeOllamaLine parses one JSON-lines chunk. Error lines surface
// immediately as APIError.
func (s *clientStream) decodeOllamaLine(line string) (StreamChunk, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return StreamChunk{}, false, nil
	}

	var event struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Done  bool   `json:"done"`
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(line), &event) != nil {
		return StreamChunk{}, false, nil
	}

	if event.Error != "" {
		return StreamChunk{}, false, &APIError{Message: event.Error, Vendor: s.vendor}
	}

	return StreamChunk{
		Delta: event.Message.Content,
		Done:  event.Done,
	}, true, nil
}

// Close releases the stream. Safe to call more than once.
func (s *clientStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

var _ Stream = (*clientStream)(nil)
