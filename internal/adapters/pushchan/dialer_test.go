package pushchan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestChannelURL(t *testing.T) {
	tests := []struct {
		name    string
		api     string
		ws      string
		batch   string
		want    string
		wantErr bool
	}{
		{"http api", "http://localhost:8000", "", "b-1", "ws://localhost:8000/run/ws/b-1", false},
		{"https api with prefix", "https://helix.example.com/api/", "", "b-2", "wss://helix.example.com/api/run/ws/b-2", false},
		{"explicit ws wins", "http://localhost:8000", "wss://push.example.com", "b-3", "wss://push.example.com/run/ws/b-3", false},
		{"escapes batch id", "http://h", "", "a b", "ws://h/run/ws/a%20b", false},
		{"missing batch", "http://h", "", "", "", true},
		{"no base", "", "", "b", "", true},
		{"bad scheme", "ftp://h", "", "b", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChannelURL(tt.api, tt.ws, tt.batch)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

// newChannelServer serves /run/ws/{id}, writes frames, then waits for the
// client to go away.
func newChannelServer(t *testing.T, frames []string, gotPath chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotPath != nil {
			gotPath <- r.URL.Path
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for _, f := range frames {
			if err := ws.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDialer_ReadsFrames(t *testing.T) {
	paths := make(chan string, 1)
	srv := newChannelServer(t, []string{`{"type":"running","case_id":1}`, `{"type":"done"}`}, paths)

	d, err := NewDialer(Config{APIURL: srv.URL}, nil)
	if err != nil {
		t.Fatalf("NewDialer: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := d.Dial(ctx, "batch-42")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ch.Close()

	if got := <-paths; got != "/run/ws/batch-42" {
		t.Errorf("expected /run/ws/batch-42, got %s", got)
	}

	for _, want := range []string{`{"type":"running","case_id":1}`, `{"type":"done"}`} {
		data, err := ch.ReadMessage(ctx)
		if err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	}
}

func TestConn_ReadMessageHonorsContext(t *testing.T) {
	srv := newChannelServer(t, nil, nil)

	d, err := NewDialer(Config{APIURL: srv.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ch, err := d.Dial(context.Background(), "idle")
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = ch.ReadMessage(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	srv := newChannelServer(t, nil, nil)

	d, err := NewDialer(Config{APIURL: srv.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ch, err := d.Dial(context.Background(), "b")
	if err != nil {
		t.Fatal(err)
	}

	first := ch.Close()
	second := ch.Close()
	if first != second {
		t.Errorf("expected repeated Close to return the same result, got %v then %v", first, second)
	}
}

func TestDialer_HandshakeFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d, err := NewDialer(Config{APIURL: srv.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = d.Dial(context.Background(), "b")
	if err == nil || !strings.Contains(err.Error(), "handshake status 404") {
		t.Fatalf("expected handshake status error, got %v", err)
	}
}

func TestConn_PeerClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		ws.Close()
	}))
	defer srv.Close()

	d, err := NewDialer(Config{APIURL: srv.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ch, err := d.Dial(context.Background(), "b")
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	_, err = ch.ReadMessage(context.Background())
	var ce *websocket.CloseError
	if !errors.As(err, &ce) || ce.Code != websocket.CloseNormalClosure {
		t.Fatalf("expected peer close, got %v", err)
	}
}
