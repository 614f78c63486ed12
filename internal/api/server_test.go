package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/vadimtrunov/cinescope/internal/core"
)

func startServer(t *testing.T, cat core.Catalog) (*Server, context.CancelFunc, <-chan error) {
	t.Helper()
	srv := NewServer("127.0.0.1:0", cat, discardLogger)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		cancel()
		t.Fatalf("server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not become ready within timeout")
	}
	return srv, cancel, errCh
}

func TestServer_StartAndStop(t *testing.T) {
	t.Parallel()

	_, cancel, errCh := startServer(t, &mockCatalog{})
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("server returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop within timeout")
	}
}

func TestServer_AddrBeforeStart(t *testing.T) {
	t.Parallel()

	srv := NewServer("127.0.0.1:0", &mockCatalog{}, nil)
	if addr := srv.Addr(); addr != "" {
		t.Errorf("expected empty addr before start, got %q", addr)
	}
	if srv.Name() != "api" {
		t.Errorf("Name = %q", srv.Name())
	}
}

func TestServer_DoubleStart(t *testing.T) {
	t.Parallel()

	srv, cancel, _ := startServer(t, &mockCatalog{})
	defer cancel()

	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("expected error on second Start")
	}
}

func TestServer_ServesAPI(t *testing.T) {
	t.Parallel()

	cat := &mockCatalog{movies: []core.MovieSummary{{ID: 1, Title: "Heat"}}}
	srv, cancel, _ := startServer(t, cat)
	defer cancel()

	url := fmt.Sprintf("http://%s/api/movies?mode=popular", srv.Addr())
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
}

func TestServer_Stop(t *testing.T) {
	t.Parallel()

	srv := NewServer("127.0.0.1:0", &mockCatalog{}, discardLogger)
	if err := srv.Stop(context.Background()); err != nil {
		t.Errorf("Stop before Start: %v", err)
	}

	srv, cancel, errCh := startServer(t, &mockCatalog{})
	defer cancel()
	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("server returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
