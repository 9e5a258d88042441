package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shouni/gemini-image-studio/internal/metrics"
	"github.com/shouni/gemini-image-studio/pkg/assets"
	"github.com/shouni/gemini-image-studio/pkg/credential"
	"github.com/shouni/gemini-image-studio/pkg/generator"
	"github.com/shouni/gemini-image-studio/pkg/notify"
	"github.com/shouni/gemini-image-studio/pkg/session"
)

// Deps はサーバーが利用するコンポーネントです。
type Deps struct {
	Generator   generator.ImageGenerator
	Sessions    *session.Store
	Loader      *assets.Loader
	Credentials *credential.Store
	Toaster     *notify.Toaster
	Metrics     *metrics.Collector
}

// Server は画像スタジオの HTTP API です。
type Server struct {
	gen      generator.ImageGenerator
	sessions *session.Store
	loader   *assets.Loader
	creds    *credential.Store
	toaster  *notify.Toaster
	metrics  *metrics.Collector

	// テキスト生成とリミックスはセッションに属さないため、サーバー単位で排他する
	guard *session.Guard
}

// New は Server を初期化します。
func New(d Deps) (*Server, error) {
	switch {
	case d.Generator == nil:
		return nil, fmt.Errorf("generator is required")
	case d.Sessions == nil:
		return nil, fmt.Errorf("session store is required")
	case d.Loader == nil:
		return nil, fmt.Errorf("asset loader is required")
	case d.Credentials == nil:
		return nil, fmt.Errorf("credential store is required")
	}
	if d.Toaster == nil {
		d.Toaster = notify.NewToaster()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewCollector()
	}

	return &Server{
		gen:      d.Generator,
		sessions: d.Sessions,
		loader:   d.Loader,
		creds:    d.Credentials,
		toaster:  d.Toaster,
		metrics:  d.Metrics,
		guard:    session.NewGuard(),
	}, nil
}

// Router はルーティング済みのハンドラを返します。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		s.requestLogger,
	)

	r.Get("/healthz", s.health)
	r.Get("/styles", s.styles)
	r.Get("/toasts", s.listToasts)
	r.Delete("/toasts/{id}", s.dismissToast)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/apikey", func(r chi.Router) {
		r.Get("/", s.apiKeyStatus)
		r.Put("/", s.setAPIKey)
		r.Delete("/", s.clearAPIKey)
	})

	r.Post("/generate", s.generate)
	r.Post("/remix", s.remix)
	r.Post("/optimize", s.optimizeText)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Patch("/", s.patchSession)
			r.Delete("/", s.deleteSession)
			r.Put("/image", s.loadImage)
			r.Get("/image", s.downloadImage)
			r.Delete("/image", s.changeImage)
			r.Put("/reference", s.setReference)
			r.Delete("/reference", s.clearReference)
			r.Post("/seed/random", s.randomSeed)
			r.Post("/pointer", s.pointer)
			r.Get("/mask", s.getMask)
			r.Delete("/mask", s.clearMask)
			r.Post("/edit", s.edit)
			r.Post("/optimize", s.optimizeSession)
			r.Post("/new", s.startNew)
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"ai_ready":   s.creds.HasKey(),
		"sessions":   s.sessions.Len(),
		"checked_at": time.Now().UTC(),
	})
}

func (s *Server) listToasts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.toaster.List())
}

func (s *Server) dismissToast(w http.ResponseWriter, r *http.Request) {
	if !s.toaster.Remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "not_found", "toast not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, kind, message string) {
	writeJSON(w, code, errorResponse{Error: kind, Message: message})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
