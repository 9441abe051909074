// Package web is the HTTP surface: the browsable HTML pages and the JSON
// API over the scanned document set.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garagekb/garagekb/internal/config"
	"github.com/garagekb/garagekb/internal/kb"
	"github.com/garagekb/garagekb/internal/markdown"
	"github.com/garagekb/garagekb/internal/search"
	"github.com/garagekb/garagekb/internal/utils"
)

// ServiceName is reported by /health and shown in page headers.
const ServiceName = "GARAGE Knowledge Base"

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*.css
var staticFS embed.FS

const requestIDKey = "request_id"

// Server wires the store, search engine and renderer behind the routes.
type Server struct {
	app      *fiber.App
	cfg      *config.Config
	store    *kb.Store
	engine   *search.Engine
	renderer *markdown.Renderer
	rewriter *markdown.Rewriter
	logger   *zap.Logger
}

// New builds the fiber app with views, middleware and routes registered.
func New(cfg *config.Config, store *kb.Store, engine *search.Engine, renderer *markdown.Renderer, rewriter *markdown.Rewriter, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		store:    store,
		engine:   engine,
		renderer: renderer,
		rewriter: rewriter,
		logger:   logger,
	}

	views, err := newViews()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               ServiceName,
		Views:                 views,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	app.Use(s.requestID)
	app.Use(s.logRequests)
	app.Use(fiberrecover.New())
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:       http.FS(staticFS),
		PathPrefix: "static",
	}))

	app.Get("/", s.handleIndex)
	app.Get("/instruction/:id", s.handleInstruction)
	app.Get("/image/:id/:filename", s.handleImage)
	app.Get("/api/search", s.handleAPISearch)
	app.Get("/api/instructions", s.handleAPIInstructions)
	app.Get("/health", s.handleHealth)
	app.Use(func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	s.app = app
	return s, nil
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr), zap.String("data_dir", s.store.Root()))
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func newViews() (*html.Engine, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, err
	}
	views := html.NewFileSystem(http.FS(sub), ".html")
	views.AddFunc("formatTime", func(t time.Time) string {
		return t.Format("02.01.2006 15:04")
	})
	views.AddFunc("striptags", utils.StripTags)
	views.AddFunc("truncate", truncateRunes)
	views.AddFunc("raw", func(s string) template.HTML {
		return template.HTML(s)
	})
	return views, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}

// requestID tags every request, honoring an id supplied by a proxy.
func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals(requestIDKey, id)
	c.Set(fiber.HeaderXRequestID, id)
	return c.Next()
}

// logRequests resolves downstream errors through the error handler first so
// the logged status is the one that went out.
func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	chainErr := c.Next()
	if chainErr != nil {
		if err := s.errorHandler(c, chainErr); err != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	s.logger.Info("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID(c)),
	)
	return nil
}

// errorHandler is the catch-all: API routes answer JSON, page routes render
// the error (or 404) template. Every route produces a response.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
	}
	if isAPIPath(c.Path()) {
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
	var renderErr error
	if code == fiber.StatusNotFound {
		renderErr = c.Status(code).Render("404", fiber.Map{"Service": ServiceName, "RequestedID": ""})
	} else {
		renderErr = c.Status(code).Render("error", fiber.Map{"Service": ServiceName, "Code": code, "Message": err.Error()})
	}
	if renderErr != nil {
		return c.Status(code).SendString(err.Error())
	}
	return nil
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/health"
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}
