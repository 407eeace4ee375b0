package transport

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/ArubikU/blobcraft/config"
	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/internal/service"
	"github.com/ArubikU/blobcraft/pkg/response"
	"github.com/ArubikU/blobcraft/pkg/validator"
)

// NewEcho creates a new Echo instance
func NewEcho(svc *service.Service, cfg *config.Config) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = SonicSerializer{}
	e.HTTPErrorHandler = errorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if cfg.App.EnableCORS {
		e.Use(middleware.CORS())
	}
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", config.Bytes(cfg.App.MaxRequestSize))))
	if cfg.App.RateLimit.Enabled {
		e.Use(rateLimiter(cfg.App.RateLimit))
	}
	if cfg.App.AccessKey != "" {
		e.Use(keyAuth(cfg.App.AccessKey))
	}

	customVal, err := validator.New()
	if err != nil {
		return nil, err
	}
	e.Validator = customVal

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return response.FromDTO(c.Response(), http.StatusOK, map[string]string{"status": "ok"})
	})

	// Setup routes
	SetupRoute(e, svc)

	return e, nil
}

func publicPath(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/health" || strings.HasPrefix(path, "/public/")
}

func keyAuth(accessKey string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Skipper:    publicPath,
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(key string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(accessKey)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return response.FromError(c.Response(), http.StatusUnauthorized, model.ErrUnauthorized)
		},
	})
}

func rateLimiter(cfg config.RateLimit) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds())

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      limit,
			Burst:     cfg.Requests,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return response.FromError(c.Response(), http.StatusForbidden, model.ErrValidation.Fmt("cannot identify client"))
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return response.FromError(c.Response(), http.StatusTooManyRequests, model.ErrRateLimited)
		},
	})
}

// errorHandler renders errors that escape handlers, e.g. unknown routes or
// oversized bodies, in the common response shape.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
		code := strings.ToLower(strings.ReplaceAll(http.StatusText(httpErr.Code), " ", "_"))
		_ = response.FromError(c.Response(), httpErr.Code, model.NewError("http."+code, message))
		return
	}

	_ = response.FromError(c.Response(), statusOf(err), err)
}
