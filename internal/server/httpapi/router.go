package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the full route tree. Public routes carry only metrics and
// logging; authenticated routes add the session middleware; admin routes add
// the admin check on top.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(metricsMiddleware)
	r.Use(h.requestLogger)

	r.Get("/health", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.sessionAuth)

		r.Get("/get_documents", h.handleGetDocuments)
		r.Post("/upload_document", h.handleUploadDocument)
		r.Get("/user/document/{id}/download", h.handleDownloadDocument)
		r.Delete("/user/document/{id}/delete", h.handleDeleteDocument)

		r.Post("/get_activity_logs", h.handleGetActivityLogs)
		r.Get("/get_users", h.handleGetUsers)
		r.Get("/get_dashboard_data", h.handleGetDashboardData)

		r.Group(func(r chi.Router) {
			r.Use(h.adminOnly)

			r.Get("/admin/document/{id}/download", h.handleDownloadDocument)
			r.Delete("/admin/document/{id}/delete", h.handleDeleteDocument)
			r.Post("/admin/users/status", h.handleUpdateUserStatus)
			r.Delete("/admin/users/delete", h.handleDeleteUser)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
