package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/waybridge/internal/realtime"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	DB     *gorm.DB
	Port   int
	Broker *realtime.Broker
	Out    io.Writer
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("dashboard: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(opts.DB, opts.Broker)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// NewRouter builds the Gin router with all API routes registered.
func NewRouter(db *gorm.DB, broker *realtime.Broker) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, db, broker)
	return router
}
