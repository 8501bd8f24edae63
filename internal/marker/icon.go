package marker

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// IconLoader fetches and decodes icon images.
type IconLoader interface {
	Load(ctx context.Context, iconURL string) (image.Image, error)
}

// TaintedImage is an icon from another origin that did not allow cross-origin
// reads. It can be shown but not composited into a readable bitmap.
type TaintedImage struct {
	image.Image
	Origin string
}

// HTTPIconLoader loads http(s) URLs with Client, and file paths from disk
// when AllowFiles is set. When Origin is set, http images from other origins
// are wrapped in TaintedImage unless the response allows Origin.
type HTTPIconLoader struct {
	Client     *http.Client
	Origin     string
	MaxBytes   int64
	AllowFiles bool
}

// ErrFileIcon is returned for file icons when AllowFiles is off.
var ErrFileIcon = errors.New("icon: file access disabled")

func (l HTTPIconLoader) Load(ctx context.Context, iconURL string) (image.Image, error) {
	u, err := url.Parse(iconURL)
	if err != nil {
		return nil, fmt.Errorf("icon %q: %w", iconURL, err)
	}
	switch u.Scheme {
	case "http", "https":
		return l.loadHTTP(ctx, u)
	case "file", "":
		if !l.AllowFiles {
			return nil, fmt.Errorf("icon %q: %w", iconURL, ErrFileIcon)
		}
		path := u.Path
		if u.Scheme == "" {
			path = iconURL
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("icon %q: %w", iconURL, err)
		}
		defer f.Close()
		img, _, err := image.Decode(l.limit(f))
		if err != nil {
			return nil, fmt.Errorf("icon %q: %w", iconURL, err)
		}
		return img, nil
	}
	return nil, fmt.Errorf("icon %q: unsupported scheme %q", iconURL, u.Scheme)
}

func (l HTTPIconLoader) limit(r io.Reader) io.Reader {
	n := l.MaxBytes
	if n <= 0 {
		n = 4 << 20
	}
	return io.LimitReader(r, n)
}

func (l HTTPIconLoader) loadHTTP(ctx context.Context, u *url.URL) (image.Image, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if l.Origin != "" {
		req.Header.Set("Origin", l.Origin)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("icon %q: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icon %q: status %d", u, resp.StatusCode)
	}
	img, _, err := image.Decode(l.limit(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("icon %q: %w", u, err)
	}
	origin := u.Scheme + "://" + u.Host
	if l.Origin == "" || strings.EqualFold(origin, l.Origin) {
		return img, nil
	}
	switch resp.Header.Get("Access-Control-Allow-Origin") {
	case "*", l.Origin:
		return img, nil
	}
	return &TaintedImage{Image: img, Origin: origin}, nil
}
