package apiapp

import (
	"errors"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/chronon/photochron/internal/domain/model"
	accesssvc "github.com/chronon/photochron/internal/services/access"
	tenantsvc "github.com/chronon/photochron/internal/services/tenant"
	httperrors "github.com/chronon/photochron/internal/transport/http/errors"
)

func ApplyMiddlewares(r chiRouter, log *zap.Logger) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(requestLogger(log))
}

// TenantMiddleware resolves the request hostname to a tenant username and
// stores it in the context. Every tenant-scoped route sits behind it.
func TenantMiddleware(resolver *tenantsvc.Resolver, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				httperrors.WriteError(w, http.StatusInternalServerError, "tenant resolver is unavailable")
				return
			}

			username, err := resolver.Resolve(r.Context(), r.Host)
			if err != nil {
				switch {
				case errors.Is(err, tenantsvc.ErrDevUserNotConfigured):
					if log != nil {
						log.Error("loopback request without dev user configured", zap.String("host", r.Host))
					}
					httperrors.WriteError(w, http.StatusInternalServerError, "server is not configured for local development")
				case errors.Is(err, model.ErrTenantNotFound):
					httperrors.WriteError(w, http.StatusNotFound, "unknown site")
				default:
					if log != nil {
						log.Error("tenant resolution failed", zap.String("host", r.Host), zap.Error(err))
					}
					httperrors.WriteError(w, http.StatusInternalServerError, "tenant resolution failed")
				}
				return
			}

			ctx := tenantsvc.WithUsername(r.Context(), username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessMiddleware extracts the caller identity from the gateway headers
// and checks it against the resolved tenant's allowlist. Runs after
// TenantMiddleware.
func AccessMiddleware(extractor *accesssvc.Extractor, gate *accesssvc.Gate, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if extractor == nil || gate == nil {
				httperrors.WriteError(w, http.StatusInternalServerError, "access control is unavailable")
				return
			}

			username, ok := tenantsvc.UsernameFromContext(r.Context())
			if !ok {
				httperrors.WriteError(w, http.StatusNotFound, "unknown site")
				return
			}

			identity, err := extractor.Extract(r.Header)
			if err != nil {
				if log != nil {
					log.Debug("identity extraction failed", zap.Error(err))
				}
				httperrors.WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}

			if err := gate.Authorize(r.Context(), identity, username); err != nil {
				switch {
				case errors.Is(err, accesssvc.ErrNotAuthorized):
					if log != nil {
						log.Warn("caller not on tenant allowlist",
							zap.String("client_id", identity.ClientID),
							zap.String("tenant", username),
						)
					}
					httperrors.WriteError(w, http.StatusForbidden, "not authorized for this site")
				case errors.Is(err, model.ErrTenantNotFound):
					httperrors.WriteError(w, http.StatusNotFound, "unknown site")
				default:
					if log != nil {
						log.Error("authorization check failed", zap.Error(err))
					}
					httperrors.WriteError(w, http.StatusInternalServerError, "authorization check failed")
				}
				return
			}

			ctx := accesssvc.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			if log != nil {
				log.Info("http_request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("host", r.Host),
					zap.Duration("duration", time.Since(start)),
				)
			}
		})
	}
}

type chiRouter interface {
	Use(middlewares ...func(http.Handler) http.Handler)
}
