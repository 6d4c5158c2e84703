package user_api

import (
	"net/http"
	"time"

	"user-service/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const userIDParam = "/{user_id:[0-9]+}"

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(h.Logger))
	r.Use(middleware.Recoverer)

	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/health", h.Health)

	r.Post("/create", h.CreateUser)
	r.Get("/users", h.ListUsers)
	r.Get("/user"+userIDParam, h.GetUser)
	r.Post("/update", h.UpdateUser)
	r.Delete("/delete"+userIDParam, h.DeleteUser)
	if h.LegacyDeleteRoute {
		r.Get("/delete"+userIDParam, h.DeleteUser)
	}
}

// AccessLog records one API line per request once the handler has returned.
func AccessLog(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, status, time.Since(start))
		})
	}
}
