package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestSendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"messages":[{"id":"wamid.x"}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "12345", time.Second, testLogger())
	if err := c.SendText(context.Background(), "5491100000000", "hola"); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/12345/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotBody["to"] != "5491100000000" {
		t.Errorf("to = %v", gotBody["to"])
	}
	text, _ := gotBody["text"].(map[string]any)
	if text["body"] != "hola" {
		t.Errorf("body = %v", text["body"])
	}
}

func TestSendTextErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "12345", time.Second, testLogger())
	if err := c.SendText(context.Background(), "549", "hola"); err == nil {
		t.Fatal("expected an error on 401")
	}
}

func TestDownload(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/media123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"url":%q,"mime_type":"image/jpeg"}`, srv.URL+"/blob")
	})
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "no auth", http.StatusUnauthorized)
			return
		}
		w.Write([]byte("fake-jpeg-bytes"))
	})

	c := NewClient(srv.URL, "tok", "12345", time.Second, testLogger())
	data, mime, err := c.Download(context.Background(), "media123")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "fake-jpeg-bytes" {
		t.Errorf("data = %q", data)
	}
	if mime != "image/jpeg" {
		t.Errorf("mime = %q", mime)
	}
}

func TestPayloadMessages(t *testing.T) {
	raw := `{
		"entry": [{"changes": [{"value": {
			"contacts": [{"wa_id": "549111", "profile": {"name": "Juan"}}],
			"messages": [
				{"id": "m1", "from": "549111", "type": "text", "text": {"body": "500 cena"}},
				{"id": "m2", "from": "549111", "type": "image",
				 "image": {"id": "med1", "mime_type": "image/jpeg", "caption": "comprobante"}}
			]
		}}]}]
	}`

	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}

	msgs := p.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Name != "Juan" || msgs[0].Text != "500 cena" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].MediaKind != MediaImage || msgs[1].MediaID != "med1" || msgs[1].Caption != "comprobante" {
		t.Errorf("second message = %+v", msgs[1])
	}
}

func TestDedup(t *testing.T) {
	d := NewDedup(time.Minute)
	if d.Seen("m1") {
		t.Error("first sighting reported as seen")
	}
	if !d.Seen("m1") {
		t.Error("second sighting not reported as seen")
	}
	if d.Seen("") {
		t.Error("empty id must never count as seen")
	}
}
