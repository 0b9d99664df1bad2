package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	_ "image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	qrgen "github.com/skip2/go-qrcode"

	"github.com/qrprint/kiosk/internal/core"
)

func TestCooldownDebouncesRepeatScans(t *testing.T) {
	w := NewWorker(nil, nil, nil, 3*time.Second)

	now := time.Unix(1000, 0)
	w.now = func() time.Time { return now }

	if !w.shouldProcess("tok-a") {
		t.Fatal("first scan should be processed")
	}
	if w.shouldProcess("tok-a") {
		t.Error("immediate rescan should be debounced")
	}

	now = now.Add(time.Second)
	if w.shouldProcess("tok-a") {
		t.Error("rescan within the cooldown should be debounced")
	}

	// A different token is unaffected.
	if !w.shouldProcess("tok-b") {
		t.Error("different token should be processed")
	}

	now = now.Add(3 * time.Second)
	if !w.shouldProcess("tok-a") {
		t.Error("rescan after the cooldown should be processed")
	}
}

func TestCooldownPrunesOldEntries(t *testing.T) {
	w := NewWorker(nil, nil, nil, 3*time.Second)

	now := time.Unix(2000, 0)
	w.now = func() time.Time { return now }

	w.shouldProcess("tok-old")
	now = now.Add(10 * time.Second)
	w.shouldProcess("tok-new")

	if _, ok := w.lastSeen["tok-old"]; ok {
		t.Error("expired cooldown entry should have been pruned")
	}
	if _, ok := w.lastSeen["tok-new"]; !ok {
		t.Error("fresh cooldown entry should remain")
	}
}

func newTestServer(t *testing.T, resolveStatus int, resolveBody map[string]string) (*httptest.Server, *sync.Map) {
	t.Helper()

	calls := &sync.Map{}
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/resolve"):
			calls.Store("resolve", r.URL.Path)
			rw.Header().Set("Content-Type", "application/json")
			rw.WriteHeader(resolveStatus)
			json.NewEncoder(rw).Encode(resolveBody)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/printed"):
			calls.Store("printed", r.URL.Path)
			rw.Header().Set("Content-Type", "application/json")
			json.NewEncoder(rw).Encode(map[string]string{"status": "ok"})
		default:
			rw.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestClientResolveSuccess(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, map[string]string{"filepath": "/data/uploads/doc.pdf"})
	client := NewClient(srv.URL)

	path, err := client.Resolve(context.Background(), "tok-ok")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if path != "/data/uploads/doc.pdf" {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestClientResolveErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, core.ErrNotFound},
		{http.StatusForbidden, core.ErrExpired},
		{http.StatusPaymentRequired, core.ErrPaymentRequired},
		{http.StatusConflict, core.ErrAlreadyPrinted},
	}

	for _, tc := range cases {
		srv, _ := newTestServer(t, tc.status, map[string]string{"error": "rejected"})
		client := NewClient(srv.URL)

		_, err := client.Resolve(context.Background(), "tok")
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

type fakePrinter struct {
	mu    sync.Mutex
	paths []string
	fail  bool
}

func (p *fakePrinter) Print(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("paper jam")
	}
	p.paths = append(p.paths, path)
	return nil
}

func TestDispatchPrintsAndConfirms(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, map[string]string{"filepath": "/data/uploads/doc.pdf"})
	printer := &fakePrinter{}
	w := NewWorker(NewClient(srv.URL), printer, nil, time.Second)

	w.dispatch(context.Background(), "tok-dispatch")

	if len(printer.paths) != 1 || printer.paths[0] != "/data/uploads/doc.pdf" {
		t.Errorf("printer got %v", printer.paths)
	}
	if _, ok := calls.Load("printed"); !ok {
		t.Error("expected the printed confirmation to be sent")
	}
}

func TestDispatchPrintFailureDoesNotConfirm(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, map[string]string{"filepath": "/data/uploads/doc.pdf"})
	printer := &fakePrinter{fail: true}
	w := NewWorker(NewClient(srv.URL), printer, nil, time.Second)

	w.dispatch(context.Background(), "tok-jam")

	if _, ok := calls.Load("printed"); ok {
		t.Error("a failed physical print must not be confirmed")
	}
}

func TestLineSourceSkipsBlankLines(t *testing.T) {
	src := NewLineSource(strings.NewReader("\n  \ntok-1\n\ntok-2\n"))
	ctx := context.Background()

	first, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("failed to read first token: %v", err)
	}
	if first != "tok-1" {
		t.Errorf("expected tok-1, got %q", first)
	}

	second, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("failed to read second token: %v", err)
	}
	if second != "tok-2" {
		t.Errorf("expected tok-2, got %q", second)
	}
}

func TestDecodeQRReadsGeneratedCode(t *testing.T) {
	const token = "Zm9vYmFyYmF6cXV4MTIzNA"

	png, err := qrgen.Encode(token, qrgen.Medium, 256)
	if err != nil {
		t.Fatalf("failed to encode QR: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(png))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}

	got, err := DecodeQR(img)
	if err != nil {
		t.Fatalf("failed to decode QR: %v", err)
	}
	if got != token {
		t.Errorf("expected %q, got %q", token, got)
	}
}
