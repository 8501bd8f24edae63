package marker

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(4, 4, color.NRGBA{G: 255, A: 255})); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// iconServer serves a PNG with the given Access-Control-Allow-Origin value
// (none when empty) and 404 for /missing.png.
func iconServer(t *testing.T, allow string) *httptest.Server {
	t.Helper()
	body := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		if allow != "" {
			w.Header().Set("Access-Control-Allow-Origin", allow)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPIconLoader_Taint(t *testing.T) {
	const app = "http://app.example"
	cases := []struct {
		name    string
		allow   string
		origin  func(srv *httptest.Server) string
		tainted bool
	}{
		{"no origin configured", "", func(*httptest.Server) string { return "" }, false},
		{"same origin", "", func(srv *httptest.Server) string { return srv.URL }, false},
		{"cross origin with wildcard", "*", func(*httptest.Server) string { return app }, false},
		{"cross origin allowed", app, func(*httptest.Server) string { return app }, false},
		{"cross origin other allowed", "http://else.example", func(*httptest.Server) string { return app }, true},
		{"cross origin without header", "", func(*httptest.Server) string { return app }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := iconServer(t, tc.allow)
			l := HTTPIconLoader{Client: srv.Client(), Origin: tc.origin(srv)}
			img, err := l.Load(context.Background(), srv.URL+"/i.png")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			ti, ok := img.(*TaintedImage)
			if ok != tc.tainted {
				t.Fatalf("expected tainted=%v, got %T", tc.tainted, img)
			}
			if ok && ti.Origin != srv.URL {
				t.Fatalf("expected taint origin %s, got %s", srv.URL, ti.Origin)
			}
			if img.Bounds().Dx() != 4 {
				t.Fatalf("unexpected bounds %v", img.Bounds())
			}
		})
	}
}

func TestHTTPIconLoader_Errors(t *testing.T) {
	srv := iconServer(t, "")
	l := HTTPIconLoader{Client: srv.Client()}
	if _, err := l.Load(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Fatalf("expected error for 404")
	}
	if _, err := l.Load(context.Background(), "gopher://x/i.png"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}

func TestHTTPIconLoader_Files(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i.png")
	if err := os.WriteFile(path, pngBytes(t), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, u := range []string{path, "file://" + path} {
		if _, err := (HTTPIconLoader{}).Load(context.Background(), u); !errors.Is(err, ErrFileIcon) {
			t.Fatalf("%s: expected ErrFileIcon, got %v", u, err)
		}
		img, err := HTTPIconLoader{AllowFiles: true}.Load(context.Background(), u)
		if err != nil {
			t.Fatalf("%s: load: %v", u, err)
		}
		if _, ok := img.(*TaintedImage); ok {
			t.Fatalf("%s: files are never tainted", u)
		}
		if c := color.NRGBAModel.Convert(img.At(1, 1)).(color.NRGBA); c.G != 255 {
			t.Fatalf("%s: unexpected pixel %v", u, c)
		}
	}
}
