package stt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// fakeVoskServer speaks the vosk-server protocol: a config message first,
// then one JSON reply per audio frame.
func fakeVoskServer(t *testing.T, replies []string, final string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// First message is the recognition config.
		var cfg struct {
			Config map[string]any `json:"config"`
		}
		if err := conn.ReadJSON(&cfg); err != nil {
			t.Errorf("read config: %v", err)
			return
		}
		if cfg.Config["sample_rate"] == nil {
			t.Error("config missing sample_rate")
		}

		i := 0
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			switch msgType {
			case websocket.BinaryMessage:
				reply := `{"partial": ""}`
				if i < len(replies) {
					reply = replies[i]
					i++
				}
				conn.WriteMessage(websocket.TextMessage, []byte(reply))
			case websocket.TextMessage:
				if strings.Contains(string(data), "eof") {
					msg, _ := json.Marshal(map[string]string{"text": final})
					conn.WriteMessage(websocket.TextMessage, msg)
				}
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestVoskAcceptPartialAndFinal(t *testing.T) {
	server := fakeVoskServer(t, []string{
		`{"partial": "hel"}`,
		`{"text": "hello"}`,
	}, "")
	defer server.Close()

	v := NewVosk(wsURL(server))
	defer v.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := v.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	pcm := make([]byte, 640)
	result, err := v.Accept(ctx, pcm)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if result.Final || result.Text != "hel" {
		t.Errorf("result = %+v, want partial hel", result)
	}

	result, err = v.Accept(ctx, pcm)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if !result.Final || result.Text != "hello" {
		t.Errorf("result = %+v, want final hello", result)
	}
}

func TestVoskFlush(t *testing.T) {
	server := fakeVoskServer(t, nil, "goodbye")
	defer server.Close()

	v := NewVosk(wsURL(server))
	defer v.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := v.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	text, err := v.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if text != "goodbye" {
		t.Errorf("text = %q, want goodbye", text)
	}
}

func TestVoskAcceptBeforeConnect(t *testing.T) {
	v := NewVosk("ws://localhost:1")
	defer v.Close()

	_, err := v.Accept(context.Background(), nil)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}
