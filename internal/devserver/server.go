// Package devserver is an embedded development backend implementing the
// collaborator contracts the client expects: the REST data service, object
// storage, the identity provider, the realtime change feed, and a canned
// text-generation endpoint. It exists so the client runs end to end with zero
// external setup.
package devserver

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"campusnet/internal/config"
	"campusnet/internal/observability"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const tokenIssuer = "campusnet-dev"

// Server holds the dev backend's dependencies.
type Server struct {
	cfg *config.Config
	db  *gorm.DB
	hub *Hub
	app *fiber.App
}

// NewServer connects the database and builds the Fiber app with all routes.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := connect(cfg.DevDBURL)
	if err != nil {
		return nil, err
	}
	return NewServerWithDB(cfg, db), nil
}

// NewServerWithDB builds the server over an existing connection. Used by
// tests and the seeder.
func NewServerWithDB(cfg *config.Config, db *gorm.DB) *Server {
	s := &Server{
		cfg: cfg,
		db:  db,
		hub: NewHub(),
	}
	s.app = s.buildApp()
	return s
}

// DB exposes the underlying connection for seeding.
func (s *Server) DB() *gorm.DB { return s.db }

// App exposes the Fiber app for in-process tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "campusnet dev backend",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return respondStatus(c, fiber.StatusInternalServerError, err.Error())
		},
	})

	app.Use(requestid.New())
	app.Use(requestLogger())

	prometheus := fiberprometheus.New("campusnet_dev")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	app.Get("/health", s.HealthCheck)

	auth := app.Group("/auth")
	auth.Post("/signup", s.Signup)
	auth.Post("/signin", s.Signin)
	auth.Post("/signout", s.Signout)

	rest := app.Group("/rest", s.AuthRequired())
	rest.Get("/:table", s.RestSelect) // also serves HEAD count requests
	rest.Post("/:table", s.RestInsert)
	rest.Patch("/:table", s.RestUpdate)
	rest.Delete("/:table", s.RestDelete)

	app.Post("/storage/:bucket/:key", s.AuthRequired(), s.StorageUpload)
	app.Get("/storage/:bucket/:key", s.StorageServe)

	app.Post("/generate", s.Generate)

	app.Get("/realtime", RealtimeUpgrade, s.RealtimeHandler())

	return app
}

// HealthCheck reports database connectivity.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unhealthy"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status": dbStatus,
		"time":   time.Now(),
	})
}

// AuthRequired validates the bearer token and stores the caller's profile ID
// in the request context. WebSocket upgrades pass the token as a query
// parameter.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ""
		if authHeader := c.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return respondStatus(c, fiber.StatusUnauthorized, "Authorization required")
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return respondStatus(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return respondStatus(c, fiber.StatusUnauthorized, "Invalid token claims")
		}
		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
			return respondStatus(c, fiber.StatusUnauthorized, "Invalid token issuer")
		}
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return respondStatus(c, fiber.StatusUnauthorized, "Invalid subject claim")
		}

		c.Locals("userID", sub)
		return c.Next()
	}
}

// Start serves until the listener fails.
func (s *Server) Start() error {
	observability.GlobalLogger.Info("dev backend starting", "port", s.cfg.DevPort)
	return s.app.Listen(":" + s.cfg.DevPort)
}

// Shutdown stops the listener and closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return err
	}
	if sqlDB, err := s.db.DB(); err == nil {
		return sqlDB.Close()
	}
	return nil
}

func respondStatus(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// requestLogger logs every request through the shared structured logger.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Duration("latency", time.Since(start)),
		}
		if uid := c.Locals("userID"); uid != nil {
			fields = append(fields, slog.Any("user_id", uid))
		}
		if rid := c.Locals("requestid"); rid != nil {
			fields = append(fields, slog.Any("request_id", rid))
		}

		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			observability.GlobalLogger.Error("request failed", fields...)
		} else {
			observability.GlobalLogger.Info("request processed", fields...)
		}
		return err
	}
}
