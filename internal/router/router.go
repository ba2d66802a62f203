package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/dashboard-backend/internal/handlers"
	"github.com/GregMSThompson/dashboard-backend/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		deps.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	auth := middleware.NewMiddleware(deps.Firebase)
	dsh := handlers.NewDashboardHandlers(deps)
	srh := handlers.NewDataSourceHandlers(deps)

	r.Group(func(r chi.Router) {
		r.Use(auth.FirebaseAuth)
		r.Mount("/dashboard", dsh.DashboardRoutes())
		r.Mount("/datasources", srh.DataSourceRoutes())
	})
	return r
}
