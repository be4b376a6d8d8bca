package web

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/buddybotics/go-buddy/pkg/camera"
)

func TestStatusEndpoint(t *testing.T) {
	s := NewServer(":0")
	s.UpdateState(func(st *State) {
		st.Phase = "listening"
		st.LastUserMessage = "what time is it"
	})

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got State
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Phase != "listening" {
		t.Errorf("phase = %q, want listening", got.Phase)
	}
	if got.LastUserMessage != "what time is it" {
		t.Errorf("last user message = %q", got.LastUserMessage)
	}
}

func TestConversationEndpoint(t *testing.T) {
	s := NewServer(":0")
	s.AddConversation("user", "hello")
	s.AddConversation("assistant", "hi there")

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/conversation", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var got []ConversationEntry
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Role != "user" || got[0].Message != "hello" {
		t.Errorf("first entry = %+v", got[0])
	}
	if got[1].Role != "assistant" {
		t.Errorf("second entry role = %q", got[1].Role)
	}
}

func TestConversationBufferBounded(t *testing.T) {
	s := NewServer(":0")
	for i := 0; i < maxConversationEntries+10; i++ {
		s.AddConversation("user", "msg")
	}

	s.conversationMu.RLock()
	n := len(s.conversation)
	s.conversationMu.RUnlock()
	if n != maxConversationEntries {
		t.Errorf("buffer holds %d entries, want %d", n, maxConversationEntries)
	}
}

func TestLogBufferBounded(t *testing.T) {
	s := NewServer(":0")
	for i := 0; i < maxLogEntries+10; i++ {
		s.AddLog("info", "line")
	}

	s.logsMu.RLock()
	n := len(s.logs)
	s.logsMu.RUnlock()
	if n != maxLogEntries {
		t.Errorf("buffer holds %d entries, want %d", n, maxLogEntries)
	}
}

func TestCameraFrameEndpoint(t *testing.T) {
	cam := camera.NewMockCamera([]byte("jpeg-bytes"))
	s := NewServer(":0", WithCamera(cam))

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/camera/frame", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "jpeg-bytes" {
		t.Errorf("body = %q", body)
	}
}

func TestCameraFrameWithoutCamera(t *testing.T) {
	s := NewServer(":0")
	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/camera/frame", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCameraFrameNoFrameYet(t *testing.T) {
	s := NewServer(":0", WithCamera(camera.NewMockCamera()))
	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/camera/frame", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 503 {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestCameraPresetsEndpoint(t *testing.T) {
	s := NewServer(":0")
	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/camera/presets", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(names) == 0 {
		t.Error("no presets returned")
	}
}
