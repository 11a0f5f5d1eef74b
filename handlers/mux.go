package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	mw "github.com/jrozner/roomboard/web/middleware"
)

type Options struct {
	Logger       zerolog.Logger
	Authenticate func(http.Handler) http.Handler
	SendLimiter  func(http.Handler) http.Handler
	MaxBodyBytes int64
}

func NewMux(h *Handler, opts Options) *chi.Mux {
	router := chi.NewMux()
	router.Use(hlog.NewHandler(opts.Logger))
	router.Use(hlog.RequestIDHandler("request_id", "X-Request-Id"))
	router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	router.Use(middleware.Recoverer)
	router.Use(mw.BufferBody(opts.MaxBodyBytes))

	router.Post("/register", h.register)
	router.Post("/login", h.login)
	router.Get("/users/{id}", h.getUser)

	limiter := opts.SendLimiter
	if limiter == nil {
		limiter = passthrough
	}

	router.Group(func(r chi.Router) {
		r.Use(opts.Authenticate)
		RegisterAuthenticated(r, h, limiter)
	})

	return router
}

func passthrough(next http.Handler) http.Handler {
	return next
}
