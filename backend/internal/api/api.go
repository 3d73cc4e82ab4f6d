package api

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"swooshui/backend/internal/metric"
	"swooshui/internal/dom"
	"swooshui/internal/swoosh"
)

//go:embed static/index.html
var indexHTML []byte

type ctxKey int

const requestIDKey ctxKey = iota

const (
	visitorTTL      = 3 * time.Minute
	janitorInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

type Config struct {
	// Assets holds index.html, wasm_exec.js and swooshui.wasm. Nil serves
	// only the built-in index page.
	Assets   fs.FS
	Origins  []string
	Rate     rate.Limit
	Burst    int
	Log      *slog.Logger
	Metrics  *metric.Recorder
	Gatherer prometheus.Gatherer
	Clock    clockwork.Clock
}

type API struct {
	assets  fs.FS
	origins map[string]bool
	rate    rate.Limit
	burst   int
	log     *slog.Logger
	metrics *metric.Recorder
	clock   clockwork.Clock
	limit   sync.Map
}

// New returns the host's handler. The visitor janitor stops with ctx.
func New(ctx context.Context, c Config) http.Handler {
	a := newAPI(ctx, c)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.index)
	mux.HandleFunc("GET /swooshui.wasm", a.asset("swooshui.wasm", "application/wasm"))
	mux.HandleFunc("GET /wasm_exec.js", a.asset("wasm_exec.js", "text/javascript; charset=utf-8"))
	mux.HandleFunc("GET /preview", a.preview)
	mux.HandleFunc("GET /healthz", a.health)
	if c.Gatherer != nil {
		mux.Handle("GET /metrics", metric.Handler(c.Gatherer))
	}

	return a.requestIDMiddleware(a.observeMiddleware(a.corsMiddleware(a.rateLimitMiddleware(mux))))
}

func newAPI(ctx context.Context, c Config) *API {
	allowed := make(map[string]bool)
	for _, o := range c.Origins {
		allowed[strings.TrimSpace(o)] = true
	}

	a := &API{
		assets:  c.Assets,
		origins: allowed,
		rate:    c.Rate,
		burst:   c.Burst,
		log:     c.Log,
		metrics: c.Metrics,
		clock:   c.Clock,
	}
	if a.rate <= 0 {
		a.rate = rate.Limit(10)
	}
	if a.burst < 1 {
		a.burst = 20
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.metrics == nil {
		a.metrics = metric.NewRecorder(prometheus.NewRegistry())
	}
	if a.clock == nil {
		a.clock = clockwork.NewRealClock()
	}

	go a.cleanupVisitors(ctx)
	return a
}

func (a *API) cleanupVisitors(ctx context.Context) {
	ticker := a.clock.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			a.limit.Range(func(k, v any) bool {
				seen := time.Unix(0, v.(*visitor).lastSeen.Load())
				if a.clock.Since(seen) > visitorTTL {
					a.limit.Delete(k)
				}
				return true
			})
		}
	}
}

func (a *API) index(w http.ResponseWriter, r *http.Request) {
	if a.assets != nil {
		if _, err := fs.Stat(a.assets, "index.html"); err == nil {
			http.ServeFileFS(w, r, a.assets, "index.html")
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}

func (a *API) asset(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.assets == nil {
			a.error(w, "файл не найден", http.StatusNotFound)
			return
		}
		if _, err := fs.Stat(a.assets, name); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				a.log.Error("ошибка чтения файла", "file", name, "err", err)
			}
			a.error(w, "файл не найден", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		http.ServeFileFS(w, r, a.assets, name)
	}
}

// preview renders the mounted bar on an in-memory document. ?active=<label>
// renders it with that item selected.
func (a *API) preview(w http.ResponseWriter, r *http.Request) {
	active := -1
	if label := r.URL.Query().Get("active"); label != "" {
		if active = slices.Index(swoosh.Labels(), label); active < 0 {
			a.error(w, "неизвестный пункт меню", http.StatusBadRequest)
			return
		}
	}

	doc := dom.NewHTMLDocument()
	bar, err := swoosh.Mount(r.Context(), doc, swoosh.WithClock(a.clock), swoosh.WithLogger(a.log))
	if err != nil {
		a.log.Error("ошибка рендера", "err", err)
		a.error(w, "ошибка рендера", http.StatusInternalServerError)
		return
	}
	bar.Stop()
	bar.Tick()
	if active >= 0 {
		if err := bar.Click(active); err != nil {
			a.error(w, "неизвестный пункт меню", http.StatusBadRequest)
			return
		}
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		a.log.Error("ошибка рендера", "err", err)
		a.error(w, "ошибка рендера", http.StatusInternalServerError)
		return
	}
	a.metrics.Previews.Increment()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (a *API) json(w http.ResponseWriter, d any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(d); err != nil {
		a.log.Error("ошибка записи json", "err", err)
	}
}

func (a *API) error(w http.ResponseWriter, msg string, code int) {
	a.json(w, map[string]string{"error": msg}, code)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (a *API) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.code == 0 {
		s.code = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.code == 0 {
		s.code = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

func (a *API) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := a.clock.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rec.code == 0 {
			rec.code = http.StatusOK
		}
		a.metrics.Requests.Increment(routeLabel(r, rec.code), strconv.Itoa(rec.code))
		a.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.code,
			"duration", a.clock.Since(start),
			"request_id", RequestID(r.Context()))
	})
}

// routeLabel names the mux pattern that served r. Requests answered before
// reaching the mux get their own labels so they are not counted as 404s.
func routeLabel(r *http.Request, code int) string {
	switch {
	case r.Pattern != "":
		return r.Pattern
	case r.Method == http.MethodOptions:
		return "preflight"
	case code == http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "unmatched"
	}
}

func (a *API) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allow := a.origins["*"] || a.origins[origin]
		if allow {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if a.origins["*"] && origin == "" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		v, ok := a.limit.Load(ip)
		if !ok {
			v, _ = a.limit.LoadOrStore(ip, &visitor{limiter: rate.NewLimiter(a.rate, a.burst)})
		}
		vis := v.(*visitor)
		vis.lastSeen.Store(a.clock.Now().UnixNano())
		if !vis.limiter.Allow() {
			a.error(w, "слишком много запросов", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
