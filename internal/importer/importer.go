// Package importer loads external data feeds into the item database. Feeds
// are handled by importers registered per MIME type.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"geoplot/internal/database"
	"geoplot/internal/eventloop"
	"geoplot/internal/registry"
)

var ErrUnknownType = errors.New("importer: no importer for type")

// Parser turns the bytes behind link into items.
type Parser interface {
	Parse(ctx context.Context, link string, data []byte) (database.Payload, error)
}

type ParserFunc func(ctx context.Context, link string, data []byte) (database.Payload, error)

func (f ParserFunc) Parse(ctx context.Context, link string, data []byte) (database.Payload, error) {
	return f(ctx, link, data)
}

// DirectLoader is implemented by parsers that read link themselves instead of
// being handed its bytes.
type DirectLoader interface {
	LoadDirect(ctx context.Context, link string) (database.Payload, error)
}

// Loader receives parsed payloads.
type Loader interface {
	LoadData(p database.Payload, baseURL string) error
}

// Importer handles one MIME type.
type Importer struct {
	MIMEType string
	Label    string
	Parser   Parser

	reg        *Registry
	registered bool
}

// IsRegistered reports whether the importer won its MIME type.
func (i *Importer) IsRegistered() bool { return i.registered }

// Dispose frees the importer's MIME type if it holds it.
func (i *Importer) Dispose() {
	if i.reg == nil || !i.registered {
		return
	}
	if cur, ok := i.reg.imps.Lookup(i.MIMEType); ok && cur == i {
		i.reg.imps.Unregister(i.MIMEType)
	}
	i.registered = false
}

// Options wires a Registry.
type Options struct {
	Client *http.Client
	Log    zerolog.Logger
	// Loop receives merges and callbacks; it defaults to the loading
	// goroutine.
	Loop eventloop.Loop
	// Spawn runs fetching and parsing; it defaults to a new goroutine.
	Spawn    func(func())
	MaxBytes int64
}

// Registry maps MIME types to importers. The first importer registered for a
// type wins.
type Registry struct {
	opts Options
	imps *registry.Registry[*Importer]
}

func NewRegistry(opts Options) *Registry {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Loop == nil {
		opts.Loop = eventloop.Immediate
	}
	if opts.Spawn == nil {
		opts.Spawn = eventloop.Go
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 256 << 20
	}
	return &Registry{opts: opts, imps: registry.New[*Importer]()}
}

// Register creates an importer and tries to register it. The returned
// importer reports through IsRegistered whether it won mimeType.
func (r *Registry) Register(mimeType, label string, p Parser) *Importer {
	imp := &Importer{MIMEType: mimeType, Label: label, Parser: p, reg: r}
	imp.registered = r.imps.Register(mimeType, imp)
	return imp
}

func (r *Registry) IsRegistered(mimeType string) bool { return r.imps.IsRegistered(mimeType) }

func (r *Registry) Lookup(mimeType string) (*Importer, bool) { return r.imps.Lookup(mimeType) }

// Types lists registered MIME types in registration order.
func (r *Registry) Types() []string { return r.imps.IDs() }

// Load fetches and parses link off the loop, then merges the result into db
// and calls callback on the loop. callback always runs, with the error if
// any.
func (r *Registry) Load(ctx context.Context, mimeType, link string, db Loader, callback func(error)) {
	done := func(err error) {
		if callback != nil {
			callback(err)
		}
	}
	imp, ok := r.Lookup(mimeType)
	if !ok {
		err := fmt.Errorf("%w %q", ErrUnknownType, mimeType)
		r.opts.Log.Warn().Err(err).Str("link", link).Msg("import_unknown_type")
		r.opts.Loop.Post(func() { done(err) })
		return
	}
	r.opts.Spawn(func() {
		p, base, err := r.fetchAndParse(ctx, imp, link)
		r.opts.Loop.Post(func() {
			if err == nil {
				err = db.LoadData(p, base)
			}
			if err != nil {
				r.opts.Log.Warn().Err(err).Str("link", link).Str("type", mimeType).Msg("import_parse_failed")
			} else {
				r.opts.Log.Info().Str("link", link).Int("items", len(p.Items)).Msg("import_done")
			}
			done(err)
		})
	})
}

// LoadSync is Load on the calling goroutine.
func (r *Registry) LoadSync(ctx context.Context, mimeType, link string, db Loader) error {
	imp, ok := r.Lookup(mimeType)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownType, mimeType)
	}
	p, base, err := r.fetchAndParse(ctx, imp, link)
	if err != nil {
		return err
	}
	return db.LoadData(p, base)
}

func (r *Registry) fetchAndParse(ctx context.Context, imp *Importer, link string) (p database.Payload, base string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("importer %s: panic: %v", imp.MIMEType, rec)
		}
	}()
	if d, ok := imp.Parser.(DirectLoader); ok {
		p, err = d.LoadDirect(ctx, link)
		return p, "", err
	}
	data, base, err := r.fetch(ctx, link)
	if err != nil {
		return database.Payload{}, "", err
	}
	p, err = imp.Parser.Parse(ctx, link, data)
	if err != nil {
		return database.Payload{}, "", fmt.Errorf("parse %s: %w", link, err)
	}
	return p, base, nil
}

// fetch reads link and returns its bytes and the base URL relative values
// in it resolve against.
func (r *Registry) fetch(ctx context.Context, link string) ([]byte, string, error) {
	u, err := url.Parse(link)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := r.opts.Client.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("fetch %s: %w", link, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("fetch %s: status %d", link, resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, r.opts.MaxBytes))
		if err != nil {
			return nil, "", fmt.Errorf("fetch %s: %w", link, err)
		}
		return data, baseOf(u), nil
	}

	path := link
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return data, "", nil
	}
	return data, "file://" + filepath.ToSlash(filepath.Dir(abs)) + "/", nil
}

func baseOf(u *url.URL) string {
	b := *u
	b.RawQuery, b.Fragment = "", ""
	if i := strings.LastIndex(b.Path, "/"); i >= 0 {
		b.Path = b.Path[:i+1]
	} else {
		b.Path = "/"
	}
	return b.String()
}
