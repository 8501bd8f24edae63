package marker

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/rs/zerolog"

	"geoplot/internal/eventloop"
)

// Options wires a Synthesizer. Canvas nil disables local drawing; Painter nil
// disables the remote fallback.
type Options struct {
	Canvas  Drawer
	Painter *Painter
	Cache   *Cache
	Icons   IconLoader
	// Loop receives upgrade callbacks; it defaults to running them on the
	// fetching goroutine.
	Loop eventloop.Loop
	// Spawn runs icon fetches; it defaults to a new goroutine.
	Spawn func(func())
	Log   zerolog.Logger
	// OnRender, if set, is told which backend produced each fresh marker.
	OnRender func(backend string)
}

type waiter struct {
	ctx context.Context
	fn  func(*Entry)
}

// Synthesizer produces markers through the cache, drawing locally when it
// can and falling back to painter URLs when it cannot.
type Synthesizer struct {
	opts Options

	mu       sync.Mutex
	failed   map[string]error // icon URL -> load error, never retried
	tainted  map[string]bool  // icon URL -> composite refused, painter only
	inflight map[string][]waiter
}

func NewSynthesizer(opts Options) *Synthesizer {
	if opts.Cache == nil {
		opts.Cache = NewCache(nil)
	}
	if opts.Loop == nil {
		opts.Loop = eventloop.Immediate
	}
	if opts.Spawn == nil {
		opts.Spawn = eventloop.Go
	}
	return &Synthesizer{
		opts:     opts,
		failed:   make(map[string]error),
		tainted:  make(map[string]bool),
		inflight: make(map[string][]waiter),
	}
}

func (s *Synthesizer) Cache() *Cache { return s.opts.Cache }

// Synthesize returns the marker for req. Cached entries built with equal
// settings are returned as is. With local drawing and an icon URL the
// returned marker has no icon yet: the icon is fetched in the background and,
// once composited (or replaced by a painter URL when the icon taints the
// drawing), the upgraded entry is cached under the same key and passed to
// onUpgrade on the loop. onUpgrade is skipped when ctx is done by then.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request, set Settings, onUpgrade func(*Entry)) (*Entry, error) {
	key := req.Key()
	if e, ok := s.opts.Cache.Get(key, set); ok {
		return e, nil
	}
	layout := ComputeLayout(req.Label, req.IconSize, set)

	if s.opts.Canvas == nil {
		if s.opts.Painter == nil {
			return nil, ErrNoBackend
		}
		return s.store(key, s.painterEntry(layout, req, set)), nil
	}

	if req.IconURL == "" {
		e, err := s.canvasEntry(layout, req, nil, set)
		if err != nil {
			if s.opts.Painter == nil {
				return nil, err
			}
			s.opts.Log.Warn().Err(err).Str("key", key).Msg("marker_canvas_failed")
			e = s.painterEntry(layout, req, set)
		}
		return s.store(key, e), nil
	}

	s.mu.Lock()
	tainted := s.tainted[req.IconURL]
	_, failed := s.failed[req.IconURL]
	s.mu.Unlock()
	if tainted && s.opts.Painter != nil {
		return s.store(key, s.painterEntry(layout, req, set)), nil
	}

	bare := req
	bare.IconURL = ""
	base, err := s.Synthesize(ctx, bare, set, nil)
	if err != nil {
		return nil, err
	}
	if failed || s.opts.Icons == nil {
		return base, nil
	}

	s.mu.Lock()
	waiters, running := s.inflight[key]
	s.inflight[key] = append(waiters, waiter{ctx: ctx, fn: onUpgrade})
	s.mu.Unlock()
	if !running {
		fetchCtx := context.WithoutCancel(ctx)
		s.opts.Spawn(func() { s.upgrade(fetchCtx, key, layout, req, set, base) })
	}
	return base, nil
}

func (s *Synthesizer) upgrade(ctx context.Context, key string, layout Layout, req Request, set Settings, base *Entry) {
	var (
		up      *Entry
		tainted bool
	)
	icon, err := s.opts.Icons.Load(ctx, req.IconURL)
	if err == nil {
		up, err = s.canvasEntry(layout, req, icon, set)
		if errors.Is(err, ErrTainted) && s.opts.Painter != nil {
			tainted, err = true, nil
			p := s.painterEntry(layout, req, set)
			up = &Entry{MarkerImage: p.MarkerImage, Settings: set}
		}
	}
	if err != nil {
		s.opts.Log.Warn().Err(err).Str("icon", req.IconURL).Msg("marker_icon_failed")
	} else {
		up.ShadowImage = base.ShadowImage
		up.Shape = base.Shape
	}
	s.opts.Loop.Post(func() {
		s.mu.Lock()
		waiters := s.inflight[key]
		delete(s.inflight, key)
		if tainted {
			s.tainted[req.IconURL] = true
		}
		if err != nil {
			s.failed[req.IconURL] = err
		}
		s.mu.Unlock()
		if err != nil {
			return
		}
		s.opts.Cache.Put(key, up)
		for _, w := range waiters {
			if w.fn == nil || w.ctx.Err() != nil {
				continue
			}
			w.fn(up)
		}
	})
}

func (s *Synthesizer) store(key string, e *Entry) *Entry {
	s.opts.Cache.Put(key, e)
	return e
}

func (s *Synthesizer) rendered(backend string) {
	if s.opts.OnRender != nil {
		s.opts.OnRender(backend)
	}
}

func (s *Synthesizer) painterEntry(l Layout, req Request, set Settings) *Entry {
	m, sh := s.opts.Painter.URLs(l.Width, l.BodyHeight, req.Color, req.Label, req.IconURL, req.IconSize, withShape(set, req.Shape))
	s.rendered("painter")
	return &Entry{
		MarkerImage: Image{URL: m, Size: image.Pt(l.Width, l.Height), Anchor: l.Anchor},
		ShadowImage: Image{URL: sh, Size: l.ShadowSize, Anchor: l.Anchor},
		Shape:       l.Shape,
		Settings:    set,
	}
}

func (s *Synthesizer) canvasEntry(l Layout, req Request, icon image.Image, set Settings) (*Entry, error) {
	img, shadow, err := s.opts.Canvas.Draw(DrawSpec{
		Width:    l.Width,
		Height:   l.BodyHeight,
		Color:    req.Color,
		Label:    req.Label,
		Icon:     icon,
		IconSize: req.IconSize,
		Settings: withShape(set, req.Shape),
	})
	if err != nil {
		return nil, err
	}
	mu, err := DataURL(img)
	if err != nil {
		return nil, err
	}
	su, err := DataURL(shadow)
	if err != nil {
		return nil, err
	}
	s.rendered("canvas")
	return &Entry{
		MarkerImage: Image{URL: mu, Size: image.Pt(l.Width, l.Height), Anchor: l.Anchor, Bitmap: img},
		ShadowImage: Image{URL: su, Size: l.ShadowSize, Anchor: l.Anchor, Bitmap: shadow},
		Shape:       l.Shape,
		Settings:    set,
	}, nil
}

func withShape(set Settings, shape string) Settings {
	if shape != "" {
		set.Shape = shape
	}
	return set
}
