package fetcher

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			_, _ = w.Write([]byte("image-bytes"))
		case "/moved.jpg":
			http.Redirect(w, r, "/ok.jpg", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(5 * time.Second)

	body, err := f.Fetch(srv.URL + "/ok.jpg")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "image-bytes" {
		t.Errorf("unexpected body %q", body)
	}

	body, err = f.Fetch(srv.URL + "/moved.jpg")
	if err != nil {
		t.Fatalf("Fetch redirect: %v", err)
	}
	if string(body) != "image-bytes" {
		t.Errorf("unexpected redirected body %q", body)
	}

	_, err = f.Fetch(srv.URL + "/missing.jpg")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := New(time.Second).Fetch(url + "/gone.jpg"); err == nil {
		t.Fatal("expected transport error")
	}
}
