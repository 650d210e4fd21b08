package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"todod/internal/config"
	"todod/internal/domain"
	"todod/internal/infra/db"
	"todod/internal/infra/ratelimit"
	"todod/internal/logging"
	"todod/internal/usecase"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

const (
	shutdownTimeout  = 10 * time.Second
	redisPingTimeout = 2 * time.Second
)

type Server struct {
	cfg    config.Config
	r       *gin.Engine
	handler http.Handler
	todos   *usecase.TodoService
	logger *log.Logger

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

type ServerDeps struct {
	Todos       *usecase.TodoService
	Logger      *log.Logger
	RateLimiter domain.RateLimiter
}

func NewServer(cfg config.Config, store *db.Store, logger *log.Logger) *Server {
	return NewServerWithDeps(cfg, ServerDeps{
		Todos:  usecase.NewTodoService(store),
		Logger: logger,
	})
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	useJSONFieldNames()
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(logging.Middleware(logger), gin.Recovery())

	s := &Server{
		cfg:     cfg,
		r:       r,
		handler: cors.New(corsOptions()).Handler(r),
		todos:   deps.Todos,
		logger:  logger,
	}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

// corsOptions is the service-wide policy: every origin, credentials, every
// method and header. Origin and requested headers are echoed because browsers
// treat a literal "*" as a name once credentials are allowed. The handler wraps
// the engine, so trailing-slash redirects and 404s carry the headers too.
func corsOptions() cors.Options {
	return cors.Options{
		AllowOriginFunc:      func(string) bool { return true },
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead, http.MethodOptions},
		AllowedHeaders:       []string{"*"},
		AllowCredentials:     true,
		MaxAge:               600,
		OptionsSuccessStatus: http.StatusOK,
	}
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	s.rateLimiter = override
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
	if s.rateLimiter != nil || s.rateLimitRequests <= 0 {
		return
	}
	if s.cfg.RedisAddr != "" {
		limiter, err := ratelimit.NewRedisLimiter(ratelimit.RedisOptions{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPassword,
			DB:       s.cfg.RedisDB,
		})
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
			err = limiter.Ping(ctx)
			cancel()
			if err == nil {
				s.rateLimiter = limiter
				return
			}
			_ = limiter.Close()
		}
		s.logger.Warn("redis rate limiter unavailable, using memory", "addr", s.cfg.RedisAddr, "err", err)
	}
	s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
		MaxKeys: s.cfg.RateLimitMaxKeys,
	})
}

func (s *Server) routes() {
	s.r.GET("/", s.handleRoot)

	// The limiter runs first so a rejected request never checks out a connection.
	session := s.sessionMiddleware()
	todos := s.r.Group("/todos")
	{
		todos.POST("/", s.rateLimit("todos.create"), session, s.handleCreateTodo)
		todos.GET("/", s.rateLimit("todos.list"), session, s.handleListTodos)
		todos.PATCH("/:todo_id", s.rateLimit("todos.update"), session, s.handleUpdateTodo)
		todos.DELETE("/:todo_id", s.rateLimit("todos.delete"), session, s.handleDeleteTodo)
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeDetail(c, http.StatusNotFound, "Not Found")
	})
	s.r.NoMethod(func(c *gin.Context) {
		writeDetail(c, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
}

// Close releases the rate limiter backend when it holds one.
func (s *Server) Close() error {
	if closer, ok := s.rateLimiter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
