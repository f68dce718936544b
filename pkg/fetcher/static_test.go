package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "example.com/pie", want: "https://example.com/pie"},
		{in: "  http://example.com  ", want: "http://example.com"},
		{in: "HTTPS://example.com/a?b=c", want: "https://example.com/a?b=c"},
		{in: "//cdn.example.com/x", want: "https://cdn.example.com/x"},
		{in: "", wantErr: true},
		{in: "ftp://example.com/file", wantErr: true},
		{in: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeURL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Errorf("error %v does not wrap ErrInvalidURL", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsText(t *testing.T) {
	tests := map[string]bool{
		"":                         true,
		"text/html; charset=utf-8": true,
		"text/plain":               true,
		"application/xhtml+xml":    true,
		"application/xml":          true,
		"image/png":                false,
		"application/pdf":          false,
		"application/octet-stream": false,
	}
	for ct, want := range tests {
		if got := IsText(ct); got != want {
			t.Errorf("IsText(%q) = %v, want %v", ct, got, want)
		}
	}
}

func TestStaticFetcher_Fetch(t *testing.T) {
	var gotUA, gotAccept string
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><article>Pie</article></body></html>"))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(strings.Repeat("a", 2048)))
	})
	mux.HandleFunc("/chunked", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		for i := 0; i < 4; i++ {
			_, _ = w.Write([]byte(strings.Repeat("b", 512)))
			w.(http.Flusher).Flush()
		}
	})
	mux.HandleFunc("/exact", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(strings.Repeat("c", 1024)))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewStatic(StaticConfig{MaxBodySize: 1024})

	t.Run("success", func(t *testing.T) {
		page, err := f.Fetch(context.Background(), srv.URL+"/ok")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if !strings.Contains(page.HTML, "<article>Pie</article>") {
			t.Errorf("HTML = %q", page.HTML)
		}
		if page.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d", page.StatusCode)
		}
		if page.FetchedAt.IsZero() {
			t.Error("FetchedAt not set")
		}
		if gotUA != DefaultUserAgent {
			t.Errorf("User-Agent = %q", gotUA)
		}
		if !strings.HasPrefix(gotAccept, "text/html") {
			t.Errorf("Accept = %q", gotAccept)
		}
	})

	t.Run("redirect followed", func(t *testing.T) {
		page, err := f.Fetch(context.Background(), srv.URL+"/moved")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if !strings.HasSuffix(page.URL, "/ok") {
			t.Errorf("URL = %q, want final URL", page.URL)
		}
	})

	t.Run("body at cap accepted", func(t *testing.T) {
		page, err := f.Fetch(context.Background(), srv.URL+"/exact")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if len(page.HTML) != 1024 {
			t.Errorf("len(HTML) = %d", len(page.HTML))
		}
	})

	failures := []struct {
		path string
		want error
	}{
		{"/missing", ErrBadStatus},
		{"/broken", ErrBadStatus},
		{"/image", ErrNotText},
		{"/big", ErrTooLarge},
		{"/chunked", ErrTooLarge},
	}
	for _, tt := range failures {
		t.Run(tt.path, func(t *testing.T) {
			page, err := f.Fetch(context.Background(), srv.URL+tt.path)
			if page != nil {
				t.Errorf("Fetch() page = %+v, want nil", page)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Fetch() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStaticFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewStatic(StaticConfig{Timeout: 50 * time.Millisecond})
	start := time.Now()
	page, err := f.Fetch(context.Background(), srv.URL)
	if err == nil || page != nil {
		t.Fatalf("Fetch() = %v, %v; want timeout error", page, err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Fetch() took %v", elapsed)
	}
}

func TestStaticFetcher_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page, err := NewStatic(StaticConfig{}).Fetch(ctx, srv.URL)
	if err == nil || page != nil {
		t.Fatalf("Fetch() = %v, %v; want error for cancelled context", page, err)
	}
}

func TestStaticFetcher_InvalidURL(t *testing.T) {
	_, err := NewStatic(StaticConfig{}).Fetch(context.Background(), "gopher://example.com/recipes")
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("Fetch() error = %v, want ErrInvalidURL", err)
	}
}

func TestNewStatic_Defaults(t *testing.T) {
	f := NewStatic(StaticConfig{})
	if f.config.Timeout != DefaultTimeout || f.config.MaxBodySize != DefaultMaxBodySize || f.config.UserAgent != DefaultUserAgent {
		t.Errorf("config = %+v", f.config)
	}
	if f.Type() != "static" {
		t.Errorf("Type() = %q", f.Type())
	}
}
