// Package restserver exposes the rainfall model over HTTP. It is a pure
// adapter: requests are unmarshaled, handed to the model core, and core
// failures are surfaced as HTTP errors.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/lildrip/lildrip/internal/database"
	"github.com/lildrip/lildrip/internal/log"
	"github.com/lildrip/lildrip/pkg/config"
	"github.com/lildrip/lildrip/pkg/params"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

// Controller represents the REST server controller
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	cfg       *config.Config
	Server    http.Server
	Params    params.Provider
	DB        *database.Client
	DBEnabled bool
	logger    *zap.SugaredLogger
	handlers  *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, provider params.Provider, db *database.Client, logger *zap.SugaredLogger) (*Controller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("no configuration provided")
	}
	if provider == nil {
		return nil, fmt.Errorf("no parameter provider configured")
	}

	ctrl := &Controller{
		ctx:    ctx,
		wg:     wg,
		cfg:    cfg,
		Params: provider,
		DB:     db,
		logger: logger,
	}
	ctrl.DBEnabled = db != nil

	ctrl.handlers = NewHandlers(ctrl)

	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", cfg.HTTP.ListenAddr, cfg.HTTP.Port)
	ctrl.Server.Handler = gorillahandlers.CompressHandler(router)

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.cfg.HTTP.TLSCertPath != "" && c.cfg.HTTP.TLSKeyPath != "" {
			if err := c.Server.ListenAndServeTLS(c.cfg.HTTP.TLSCertPath, c.cfg.HTTP.TLSKeyPath); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(c.requestIDMiddleware)

	router.HandleFunc("/calibrate", c.handlers.Calibrate).Methods(http.MethodPost)
	router.HandleFunc("/disaggregate", c.handlers.Disaggregate).Methods(http.MethodPost)
	router.HandleFunc("/calibrate-and-disaggregate", c.handlers.CalibrateAndDisaggregate).Methods(http.MethodPost)

	router.HandleFunc("/params", c.handlers.ListParams).Methods(http.MethodGet)
	router.HandleFunc("/params/{name}", c.handlers.GetParams).Methods(http.MethodGet)
	router.HandleFunc("/params/{name}", c.handlers.PutParams).Methods(http.MethodPut)

	router.HandleFunc("/health", c.handlers.Health).Methods(http.MethodGet)

	return router
}

// requestIDMiddleware tags each request with an ID for log correlation
func (c *Controller) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		c.logger.Debugf("request %s: %s %s from %s", id, r.Method, r.URL.Path, r.RemoteAddr)

		ctx := context.WithValue(r.Context(), requestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
