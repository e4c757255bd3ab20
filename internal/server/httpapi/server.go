// Package httpapi exposes the attendance ledger over HTTP. It is a thin
// shell over the domain services: handlers bind JSON, call the service and
// translate its errors to status codes. All ledger semantics live in the
// service packages, not here.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkarpovs/crewtally/internal/logging"
	"github.com/mkarpovs/crewtally/internal/server/areas"
	"github.com/mkarpovs/crewtally/internal/server/backup"
	"github.com/mkarpovs/crewtally/internal/server/designations"
	"github.com/mkarpovs/crewtally/internal/server/docstore"
	"github.com/mkarpovs/crewtally/internal/server/ledger"
	"github.com/mkarpovs/crewtally/internal/server/session"
	"github.com/mkarpovs/crewtally/internal/server/users"
)

type Server struct {
	address       string
	logger        logging.Logger
	store         docstore.Store
	sessions      *session.Manager
	users         *users.Service
	areas         *areas.Service
	ledger        *ledger.Service
	index         *designations.Index
	backups       *backup.Service
	s3            backup.S3Options
	jwtSecret     []byte
	tokenValidity time.Duration
}

func NewServer(a string, l logging.Logger, store docstore.Store, sm *session.Manager,
	us *users.Service, as *areas.Service, ls *ledger.Service, idx *designations.Index,
	bs *backup.Service, s3 backup.S3Options, secretKey string, tokenValidity time.Duration) *Server {
	return &Server{
		address:       a,
		logger:        l.With("module", "http_server"),
		store:         store,
		sessions:      sm,
		users:         us,
		areas:         as,
		ledger:        ls,
		index:         idx,
		backups:       bs,
		s3:            s3,
		jwtSecret:     []byte(secretKey),
		tokenValidity: tokenValidity,
	}
}

// Router builds the gin engine with all routes registered. Exposed
// separately from Run so tests can drive it with httptest.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.POST("/login", s.handleLogin)

	authed := api.Group("")
	authed.Use(s.requireAuth())
	{
		authed.POST("/logout", s.handleLogout)
		authed.GET("/me", s.handleMe)

		authed.GET("/areas", s.handleListAreas)
		authed.GET("/settings", s.handleGetSettings)

		authed.GET("/designations/suggest", s.handleSuggestDesignations)

		authed.GET("/attendance", s.handleListDates)
		authed.GET("/attendance/:date/audit", s.handleAuditTrail)
		authed.GET("/attendance/:date/total", s.handleGrandTotal)
		authed.POST("/attendance/:date/confirm-all", s.handleConfirmAll)

		authed.GET("/attendance/:date/areas/:area/rows", s.handleListRows)
		authed.POST("/attendance/:date/areas/:area/rows", s.handleAddRow)
		authed.PATCH("/attendance/:date/areas/:area/rows/:key", s.handleUpdateRow)
		authed.DELETE("/attendance/:date/areas/:area/rows/:key", s.handleDeleteRow)
		authed.GET("/attendance/:date/areas/:area/totals", s.handleAreaTotals)
	}

	admin := authed.Group("")
	admin.Use(s.requireAdmin())
	{
		admin.POST("/areas", s.handleAddArea)
		admin.PUT("/areas/:name", s.handleRenameArea)
		admin.DELETE("/areas/:name", s.handleDeleteArea)

		admin.PUT("/settings", s.handlePutSettings)

		admin.GET("/users", s.handleListUsers)
		admin.POST("/users", s.handleCreateUser)
		admin.PATCH("/users/:username", s.handleUpdateUser)
		admin.POST("/users/:username/reset-password", s.handleResetPassword)

		admin.GET("/backup", s.handleExportBackup)
		admin.POST("/backup", s.handleImportBackup)
		admin.POST("/backup/s3", s.handleUploadBackupS3)
		admin.POST("/backup/s3/restore", s.handleRestoreBackupS3)
	}

	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
