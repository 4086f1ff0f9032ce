package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-logger/glog"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/goliatone/go-tasks/core"
)

const identityContextKey = "identity"

const defaultListenAddr = ":8080"

// TaskService is the surface the HTTP layer needs from the core
// service. Handlers never reach past it into storage.
type TaskService interface {
	Register(ctx context.Context, input core.RegisterInput) (core.Identity, error)
	Login(ctx context.Context, input core.LoginInput) (core.LoginResult, error)
	Authorize(ctx context.Context, credential string) (core.Identity, error)
	CreateTask(ctx context.Context, ownerID int64, input core.CreateTaskInput) (core.Task, error)
	GetTask(ctx context.Context, ownerID int64, taskID int64) (core.Task, error)
	ListTasks(ctx context.Context, ownerID int64, page *int, limit *int) (core.TaskPage, error)
	UpdateTask(ctx context.Context, ownerID int64, taskID int64, input core.UpdateTaskInput) (core.Task, error)
	DeleteTask(ctx context.Context, ownerID int64, taskID int64) error
}

type Server struct {
	echo    *echo.Echo
	service TaskService
	logger  core.Logger
	addr    string
}

type ServerOption func(*Server)

func WithServerLogger(logger core.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithListenAddr(addr string) ServerOption {
	return func(s *Server) {
		trimmed := strings.TrimSpace(addr)
		if trimmed != "" {
			s.addr = trimmed
		}
	}
}

func NewServer(service TaskService, opts ...ServerOption) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("transport: task service is required")
	}

	server := &Server{
		echo:    echo.New(),
		service: service,
		logger:  glog.Nop(),
		addr:    defaultListenAddr,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(server)
	}

	server.echo.HideBanner = true
	server.echo.HidePort = true
	server.echo.Pre(middleware.RemoveTrailingSlash())
	server.echo.Use(middleware.Recover())

	server.registerRoutes()
	return server, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/status", s.handleStatus)

	users := s.echo.Group("/users")
	users.POST("/register", s.handleRegister)
	users.POST("/login", s.handleLogin)

	scoped := s.echo.Group("/tasks", s.requireIdentity)
	scoped.GET("", s.handleListTasks)
	scoped.POST("", s.handleCreateTask)
	scoped.GET("/:task_id", s.handleGetTask)
	scoped.PUT("/:task_id", s.handleUpdateTask)
	scoped.DELETE("/:task_id", s.handleDeleteTask)
}

// requireIdentity resolves the caller's credential before any task
// handler runs. Handlers behind it can assume a valid identity is in
// the request context.
func (s *Server) requireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := s.service.Authorize(c.Request().Context(), bearerCredential(c.Request()))
		if err != nil {
			return writeError(c, err)
		}
		c.Set(identityContextKey, identity)
		return next(c)
	}
}

// bearerCredential prefers the Authorization header; X-Token stays
// supported for clients that predate the bearer scheme.
func bearerCredential(req *http.Request) string {
	header := strings.TrimSpace(req.Header.Get("Authorization"))
	if header != "" {
		if credential, found := strings.CutPrefix(header, "Bearer "); found {
			return strings.TrimSpace(credential)
		}
		return header
	}
	return strings.TrimSpace(req.Header.Get("X-Token"))
}

func currentIdentity(c echo.Context) (core.Identity, bool) {
	identity, ok := c.Get(identityContextKey).(core.Identity)
	return identity, ok
}

// Handler exposes the routing tree, mostly for tests.
func (s *Server) Handler() http.Handler {
	if s == nil {
		return nil
	}
	return s.echo
}

func (s *Server) Start() error {
	if s == nil || s.echo == nil {
		return fmt.Errorf("transport: server is not configured")
	}
	s.logger.Info("http server listening", "addr", s.addr)
	if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.echo == nil {
		return nil
	}
	return s.echo.Shutdown(ctx)
}

var _ TaskService = (*core.Service)(nil)
