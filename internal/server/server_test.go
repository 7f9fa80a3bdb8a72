package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/barakah/internal/database"
	"github.com/dukerupert/barakah/internal/photo"
	"github.com/dukerupert/barakah/internal/websocket"
)

func newTestServer(t *testing.T, origins ...string) (*Server, string) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(db, Options{
		CORSOrigins: origins,
		Photos:      photo.NewLocalStorage(dir),
		Location:    time.UTC,
		Now:         func() time.Time { return time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC) },
	}, logger)
	return srv, dir
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Errorf("body = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, "https://app.example")
	router := srv.Router()

	req := httptest.NewRequest("OPTIONS", "/api/update-entry", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("preflight Allow-Origin = %q, want https://app.example", got)
	}

	req = httptest.NewRequest("GET", "/api/families", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin got Allow-Origin %q", got)
	}
}

func TestServesLocalPhotos(t *testing.T) {
	srv, dir := newTestServer(t)
	if err := os.WriteFile(filepath.Join(dir, "abc.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", photo.LocalURLPrefix+"/abc.png", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "png-bytes" {
		t.Errorf("got %d %q, want 200 png-bytes", rec.Code, rec.Body.String())
	}
}

func TestPhotoUploadIsRateLimited(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	var last int
	for i := 0; i <= uploadLimit; i++ {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.Close()
		req := httptest.NewRequest("POST", "/api/members/1/photo", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
		if i < uploadLimit && rec.Code != http.StatusNotFound {
			t.Errorf("request %d status = %d, want %d", i+1, rec.Code, http.StatusNotFound)
		}
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("request %d status = %d, want %d", uploadLimit+1, last, http.StatusTooManyRequests)
	}
}

func TestEntryFlowBroadcastsOverWebSocket(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	post := func(path, body string, want int) *http.Response {
		t.Helper()
		resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		if resp.StatusCode != want {
			t.Fatalf("POST %s status = %d, want %d", path, resp.StatusCode, want)
		}
		return resp
	}

	resp := post("/api/families", `{"name":"Rahman"}`, http.StatusCreated)
	var fam struct{ ID int64 }
	if err := json.NewDecoder(resp.Body).Decode(&fam); err != nil {
		t.Fatalf("decode family: %v", err)
	}
	post("/api/members", `{"family_id":1,"name":"Amina"}`, http.StatusCreated)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?family_id=1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with the hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	post("/api/update-entry?member_id=1", `{"fajr":true}`, http.StatusOK)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg websocket.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.Type != "entry_updated" {
		t.Errorf("Type = %q, want entry_updated", msg.Type)
	}
	if msg.FamilyID != fam.ID {
		t.Errorf("FamilyID = %d, want %d", msg.FamilyID, fam.ID)
	}
	if msg.Extra["entry_date"] != "2026-03-05" {
		t.Errorf("entry_date = %v, want 2026-03-05", msg.Extra["entry_date"])
	}
}

func TestWSOrigins(t *testing.T) {
	srv, _ := newTestServer(t, "https://app.example", "http://localhost:5173")
	if got, want := srv.wsOrigins(), []string{"app.example", "localhost:5173"}; !slices.Equal(got, want) {
		t.Errorf("wsOrigins = %v, want %v", got, want)
	}

	srv, _ = newTestServer(t)
	if got := srv.wsOrigins(); !slices.Equal(got, []string{"*"}) {
		t.Errorf("wsOrigins = %v, want [*]", got)
	}
}
