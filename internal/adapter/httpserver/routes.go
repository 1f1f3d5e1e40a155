package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/abouzarnameh/bombbase-api/internal/adapter/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const maxBodySize = "16K"

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupCORSMiddleware())
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	if s.httpMetrics != nil {
		s.echo.Use(s.httpMetrics.Middleware())
	}
	s.echo.Use(ErrorHandlingMiddleware(s.httpMetrics))
	s.echo.Use(recoverMiddleware())
	s.echo.Use(middleware.BodyLimit(maxBodySize))

	s.registerHealthRoutes()
	s.registerSessionRoutes(s.writeLimiter())

	if s.registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.registry)))
	}
}

// recoverMiddleware hands recovered panics back to ErrorHandlingMiddleware,
// which renders them as internal errors.
func recoverMiddleware() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableErrorHandler: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			slog.ErrorContext(c.Request().Context(), "Recovered from panic",
				"error", err,
				"path", c.Request().URL.Path,
				"stack", string(stack),
			)
			return err
		},
	})
}

// setupCORSMiddleware allows every method and header for the configured
// origins. Credentials are never allowed.
func (s *Server) setupCORSMiddleware() echo.MiddlewareFunc {
	origins := []string{"*"}
	if s.config != nil && len(s.config.AllowedOrigins) > 0 {
		origins = s.config.AllowedOrigins
	}

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*"},
		AllowCredentials: false,
	})
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}

// writeLimiter returns the per-IP limiter for mutating routes, or a
// pass-through when limiting is disabled.
func (s *Server) writeLimiter() echo.MiddlewareFunc {
	if s.config == nil || s.config.WriteRateLimit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return newRateLimiter(s.config.WriteRateLimit, s.config.WriteRateBurst, s.httpMetrics)
}
