// Package painter serves marker and shadow PNGs over HTTP, answering the
// URLs marker.Painter builds.
package painter

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"geoplot/internal/marker"
	"geoplot/internal/metrics"
)

type Options struct {
	Store   Store
	Drawer  marker.Drawer
	Icons   marker.IconLoader
	Metrics *metrics.Metrics
	// IconTimeout bounds icon fetches; zero means five seconds.
	IconTimeout time.Duration
}

type Server struct {
	log  zerolog.Logger
	opts Options
}

func New(log zerolog.Logger, opts Options) *Server {
	if opts.Drawer == nil {
		opts.Drawer = marker.Canvas{}
	}
	if opts.Icons == nil {
		opts.Icons = marker.HTTPIconLoader{}
	}
	if opts.IconTimeout <= 0 {
		opts.IconTimeout = 5 * time.Second
	}
	return &Server{log: log, opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	r.Get("/painter", s.handlePaint)

	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.opts.Metrics.ObserveHTTPRequest(r.Method, route, ww.Status(), time.Since(start))
		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("http_request")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.opts.Store.Ping(ctx); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

func (s *Server) handlePaint(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := marker.ParseParams(q)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	// Encode sorts keys, so equivalent queries share an entry.
	key := q.Encode()

	if s.opts.Store != nil {
		b, ok, err := s.opts.Store.Get(r.Context(), key)
		if err != nil {
			s.log.Warn().Err(err).Msg("store_get_failed")
		}
		s.opts.Metrics.ObserveStore(ok)
		if ok {
			s.writePNG(w, b)
			return
		}
	}

	b, err := s.Render(r.Context(), p)
	if err != nil {
		s.log.Error().Err(err).Str("renderer", p.Renderer).Msg("render_failed")
		s.writeError(w, http.StatusUnprocessableEntity, "render_failed", err.Error())
		return
	}
	if s.opts.Store != nil {
		if err := s.opts.Store.Set(r.Context(), key, b); err != nil {
			s.log.Warn().Err(err).Msg("store_set_failed")
		}
	}
	s.writePNG(w, b)
}

func (s *Server) writePNG(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// Render rasterizes p and returns PNG bytes. An icon that fails to load is
// logged and left out.
func (s *Server) Render(ctx context.Context, p marker.Params) ([]byte, error) {
	start := time.Now()
	spec := marker.DrawSpec{
		Width:    p.Width,
		Height:   p.Height,
		Color:    p.Color,
		Label:    p.Label,
		Settings: p.Settings,
	}
	if p.Renderer == marker.RendererShadow {
		spec.Color, spec.Label = "#000000", ""
	} else if p.IconURL != "" {
		ictx, cancel := context.WithTimeout(ctx, s.opts.IconTimeout)
		icon, err := s.opts.Icons.Load(ictx, p.IconURL)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("icon", p.IconURL).Msg("icon_load_failed")
		} else {
			if t, ok := icon.(*marker.TaintedImage); ok {
				icon = t.Image
			}
			spec.Icon = icon
			spec.IconSize = p.Width
		}
	}

	body, shadow, err := s.opts.Drawer.Draw(spec)
	var out image.Image = body
	if p.Renderer == marker.RendererShadow {
		out = shadow
	}
	var buf bytes.Buffer
	if err == nil {
		err = png.Encode(&buf, out)
	}
	s.opts.Metrics.ObserveRender(p.Renderer, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
