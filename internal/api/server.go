// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/linkbio/internal/adapter"
	"github.com/linkbio/internal/logging"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/types"
)

// Service interfaces for dependency injection and testing

// PublicServiceInterface defines the unauthenticated profile operations
type PublicServiceInterface interface {
	Resolve(ctx context.Context, publicLinkID string) (*models.PublicProfile, error)
	RecordClick(ctx context.Context, publicLinkID, linkID, userAgent, ipAddress string) error
}

// AuthServiceInterface defines the OAuth login flow operations
type AuthServiceInterface interface {
	GenerateState() (string, error)
	LoginURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*adapter.TokenResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*adapter.TokenResponse, error)
	GetOrCreateUser(ctx context.Context, accessToken string) (*models.User, error)
}

// ProfileServiceInterface defines the profile management operations
type ProfileServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID, accessToken string, update *models.ProfileUpdate) (*models.User, error)
	UploadProfileImage(ctx context.Context, userID, contentType string, data []byte) (*models.User, error)
	UploadBackgroundImage(ctx context.Context, userID, accessToken, contentType string, data []byte) (*models.User, error)
}

// LinkServiceInterface defines the link management operations
type LinkServiceInterface interface {
	ListLinks(ctx context.Context, userID string) ([]models.Link, error)
	CreateLink(ctx context.Context, userID, accessToken, title, linkURL, thumbnailURL string) (*models.Link, error)
	UpdateLink(ctx context.Context, userID, linkID string, update *models.LinkUpdate) (*models.Link, error)
	DeleteLink(ctx context.Context, userID, linkID string) error
	ReorderLinks(ctx context.Context, userID string, linkIDs []string) error
	ListSocialLinks(ctx context.Context, userID string) ([]models.SocialLink, error)
	CreateSocialLink(ctx context.Context, userID, accessToken string, platform types.SocialPlatform, linkURL string) (*models.SocialLink, error)
	UpdateSocialLink(ctx context.Context, userID, id string, update *models.SocialLinkUpdate) (*models.SocialLink, error)
	DeleteSocialLink(ctx context.Context, userID, id string) error
}

// AnalyticsServiceInterface defines the analytics operations
type AnalyticsServiceInterface interface {
	GetSummary(ctx context.Context, userID string) (*models.AnalyticsSummary, error)
}

// AdminServiceInterface defines the admin dashboard operations
type AdminServiceInterface interface {
	ListUsers(ctx context.Context, limit, offset int, search string) ([]models.UserWithPlan, int64, error)
	GetStats(ctx context.Context) (*models.AdminStats, error)
	UpdateUserPlan(ctx context.Context, userID string, planType types.PlanType) (*models.Plan, error)
	SetUserActive(ctx context.Context, userID string, active bool) error
}

// PlanResolverInterface resolves a user's effective plan for feature gating
type PlanResolverInterface interface {
	ResolvePlan(ctx context.Context, userID, accessToken string) (*models.Plan, error)
}

// FeatureCheckerInterface gates plan-restricted features
type FeatureCheckerInterface interface {
	CheckFeatureAccess(plan types.PlanType, feature types.Feature) error
}

// Server represents the HTTP API server.
type Server struct {
	router           *mux.Router
	httpServer       *http.Server
	publicService    PublicServiceInterface
	authService      AuthServiceInterface
	profileService   ProfileServiceInterface
	linkService      LinkServiceInterface
	analyticsService AnalyticsServiceInterface
	adminService     AdminServiceInterface
	planResolver     PlanResolverInterface
	features         FeatureCheckerInterface
	config           *ServerConfig
	logger           *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	PublicRPS       int // per-IP requests per second on the public endpoints
	PublicBurst     int
	MaxUploadBytes  int64
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	publicService PublicServiceInterface,
	authService AuthServiceInterface,
	profileService ProfileServiceInterface,
	linkService LinkServiceInterface,
	analyticsService AnalyticsServiceInterface,
	adminService AdminServiceInterface,
	planResolver PlanResolverInterface,
	features FeatureCheckerInterface,
	logger *logging.Logger,
) *Server {
	s := &Server{
		router:           mux.NewRouter(),
		publicService:    publicService,
		authService:      authService,
		profileService:   profileService,
		linkService:      linkService,
		analyticsService: analyticsService,
		adminService:     adminService,
		planResolver:     planResolver,
		features:         features,
		config:           config,
		logger:           logger,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(CORSMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes. The public profile routes are
// registered last so they never shadow /health or /api.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Auth endpoints
	api.HandleFunc("/auth/login-url", s.handleLoginURL).Methods("GET")
	api.HandleFunc("/auth/callback", s.handleAuthCallback).Methods("POST")
	api.HandleFunc("/auth/refresh", s.handleAuthRefresh).Methods("POST")
	api.HandleFunc("/auth/me", s.requireUser(s.handleCurrentUser)).Methods("GET")

	// Profile endpoints
	api.HandleFunc("/profile", s.requireUser(s.handleGetProfile)).Methods("GET")
	api.HandleFunc("/profile", s.requireUser(s.handleUpdateProfile)).Methods("PUT")
	api.HandleFunc("/profile/image", s.requireUser(s.handleUploadProfileImage)).Methods("POST")
	api.HandleFunc("/profile/background", s.requireUser(s.handleUploadBackgroundImage)).Methods("POST")

	// Link endpoints
	api.HandleFunc("/links", s.requireUser(s.handleListLinks)).Methods("GET")
	api.HandleFunc("/links", s.requireUser(s.handleCreateLink)).Methods("POST")
	api.HandleFunc("/links/reorder", s.requireUser(s.handleReorderLinks)).Methods("PUT")
	api.HandleFunc("/links/{id}", s.requireUser(s.handleUpdateLink)).Methods("PUT")
	api.HandleFunc("/links/{id}", s.requireUser(s.handleDeleteLink)).Methods("DELETE")

	// Social link endpoints
	api.HandleFunc("/social-links", s.requireUser(s.handleListSocialLinks)).Methods("GET")
	api.HandleFunc("/social-links", s.requireUser(s.handleCreateSocialLink)).Methods("POST")
	api.HandleFunc("/social-links/{id}", s.requireUser(s.handleUpdateSocialLink)).Methods("PUT")
	api.HandleFunc("/social-links/{id}", s.requireUser(s.handleDeleteSocialLink)).Methods("DELETE")

	// Analytics endpoints
	api.HandleFunc("/analytics/summary", s.requireUser(s.handleAnalyticsSummary)).Methods("GET")

	// Admin endpoints
	api.HandleFunc("/admin/users", s.requireAdmin(s.handleAdminListUsers)).Methods("GET")
	api.HandleFunc("/admin/stats", s.requireAdmin(s.handleAdminStats)).Methods("GET")
	api.HandleFunc("/admin/users/{id}/plan", s.requireAdmin(s.handleAdminUpdatePlan)).Methods("PUT")
	api.HandleFunc("/admin/users/{id}/active", s.requireAdmin(s.handleAdminSetActive)).Methods("PUT")

	// Public profile endpoints, rate limited per IP
	publicLimiter := NewRateLimiter(s.config.PublicRPS, s.config.PublicBurst)
	s.router.HandleFunc("/{publicLinkId}", publicLimiter.Middleware(s.handlePublicProfile)).Methods("GET")
	s.router.HandleFunc("/{publicLinkId}/click/{linkId}", publicLimiter.Middleware(s.handlePublicClick)).Methods("POST")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "linkbio",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
