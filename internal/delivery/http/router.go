package http

import (
	"net/http"

	"health-record-vault/internal/delivery/http/handler"
	"health-record-vault/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	healthRecordHandler *handler.HealthRecordHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	metricsHandler      http.Handler
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	healthRecordHandler *handler.HealthRecordHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	metricsHandler http.Handler,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		userHandler:         userHandler,
		healthRecordHandler: healthRecordHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		metricsHandler:      metricsHandler,
	}
}

func (r *Router) Setup() *mux.Router {
	if r.metricsHandler != nil {
		r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register/patient", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/register/gp", r.authHandler.RegisterGP).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Own profile and signing keys
	users := api.PathPrefix("/users").Subrouter()
	users.Use(r.authMiddleware.Authenticate)
	users.HandleFunc("/me", r.userHandler.UpdateProfile).Methods(http.MethodPatch)
	users.HandleFunc("/me/keys", r.userHandler.IssueKeyPair).Methods(http.MethodPost)

	// Patient lookup (GP only)
	patients := api.PathPrefix("/patients").Subrouter()
	patients.Use(r.authMiddleware.Authenticate)
	patients.Use(middleware.RequireGP)
	patients.HandleFunc("/lookup", r.userHandler.LookupPatient).Methods(http.MethodPost)

	// Health records
	records := api.PathPrefix("/records").Subrouter()
	records.Use(r.authMiddleware.Authenticate)
	records.HandleFunc("", r.healthRecordHandler.CreateRecord).Methods(http.MethodPost)
	records.HandleFunc("", r.healthRecordHandler.ListRecords).Methods(http.MethodGet)
	records.HandleFunc("/shared", r.healthRecordHandler.ListSharedRecords).Methods(http.MethodGet)
	records.HandleFunc("/{id:[0-9]+}", r.healthRecordHandler.GetRecord).Methods(http.MethodGet)
	records.HandleFunc("/{id:[0-9]+}/share", r.healthRecordHandler.ShareRecord).Methods(http.MethodPut)
	records.HandleFunc("/{id:[0-9]+}/share/{username}", r.healthRecordHandler.RevokeShare).Methods(http.MethodDelete)
	records.HandleFunc("/{id:[0-9]+}/emergency-access", r.healthRecordHandler.SetEmergencyAccess).Methods(http.MethodPut)
	records.HandleFunc("/{id:[0-9]+}/accept", r.healthRecordHandler.AcceptRecord).Methods(http.MethodPost)
	records.HandleFunc("/{id:[0-9]+}/reject", r.healthRecordHandler.RejectRecord).Methods(http.MethodPost)
	records.HandleFunc("/{id:[0-9]+}/verify", r.healthRecordHandler.VerifyRecord).Methods(http.MethodPost)
	records.HandleFunc("/{id:[0-9]+}/audit", r.healthRecordHandler.GetAuditTrail).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
