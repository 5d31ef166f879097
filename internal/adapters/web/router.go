package web

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/web/handlers"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/web/middleware"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

// Handlers bundles the HTTP handlers mounted by the router.
type Handlers struct {
	Auth            *handlers.AuthHandler
	Targets         *handlers.TargetHandler
	Scans           *handlers.ScanHandler
	Reports         *handlers.ReportHandler
	Vulnerabilities *handlers.VulnerabilityHandler
	Audit           *handlers.AuditHandler
}

// SetupRoutes builds the full route table.
func SetupRoutes(s *Server, h Handlers) http.Handler {
	r := mux.NewRouter()

	// Rate limiter for credential guessing.
	loginLimiter := middleware.NewRateLimiter(5, 1*time.Minute)

	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	// Public API
	r.Handle("/api/login",
		middleware.RateLimitMiddleware(loginLimiter)(http.HandlerFunc(h.Auth.HandleLogin))).
		Methods(http.MethodPost)
	r.HandleFunc("/api/logout", h.Auth.HandleLogout).Methods(http.MethodPost)

	// Protected API
	auth := middleware.AuthMiddleware(s.AuthService)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth)

	api.HandleFunc("/me", h.Auth.HandleMe).Methods(http.MethodGet)

	api.HandleFunc("/targets/validate", h.Targets.HandleValidate).Methods(http.MethodPost)

	api.HandleFunc("/scans", h.Scans.HandleStart).Methods(http.MethodPost)
	api.HandleFunc("/scans", h.Scans.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/scans/{id}", h.Scans.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/scans/{id}/findings", h.Scans.HandleFindings).Methods(http.MethodGet)
	api.HandleFunc("/scans/{id}/enrich", h.Scans.HandleEnrich).Methods(http.MethodPost)
	api.HandleFunc("/scans/{id}/reports", h.Reports.HandleListByScan).Methods(http.MethodGet)

	api.HandleFunc("/vulnerabilities/stats", h.Vulnerabilities.HandleStats).Methods(http.MethodGet)
	api.HandleFunc("/vulnerabilities/{id}", h.Vulnerabilities.HandleGet).Methods(http.MethodGet)

	// Review workflow requires consultant or admin. Registered before the
	// generic /reports/{id} routes so /reports/queue is not captured by {id}.
	review := api.PathPrefix("/reports").Subrouter()
	review.Use(middleware.RoleMiddleware(domain.RoleConsultant))
	review.HandleFunc("/generate", h.Reports.HandleGenerate).Methods(http.MethodPost)
	review.HandleFunc("/bulk-generate", h.Reports.HandleBulkGenerate).Methods(http.MethodPost)
	review.HandleFunc("/queue", h.Reports.HandleQueue).Methods(http.MethodGet)
	review.HandleFunc("/{id}/approve", h.Reports.HandleApprove).Methods(http.MethodPost)
	review.HandleFunc("/{id}/reject", h.Reports.HandleReject).Methods(http.MethodPost)

	api.HandleFunc("/reports/{id}", h.Reports.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}/pdf", h.Reports.HandleDownloadPDF).Methods(http.MethodGet)

	// Audit trail is admin-only.
	auditRoutes := api.PathPrefix("/audit-logs").Subrouter()
	auditRoutes.Use(middleware.RoleMiddleware(domain.RoleAdmin))
	auditRoutes.HandleFunc("", h.Audit.HandleList).Methods(http.MethodGet)

	// WebSocket endpoint (protected)
	r.Handle("/ws", auth(http.HandlerFunc(s.WSManager.HandleWebSocket)))

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return otelhttp.NewHandler(r, "sightline-server")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
