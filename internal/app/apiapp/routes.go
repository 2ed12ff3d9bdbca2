package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chronon/photochron/internal/config"
	accesssvc "github.com/chronon/photochron/internal/services/access"
	mediasvc "github.com/chronon/photochron/internal/services/media"
	tenantsvc "github.com/chronon/photochron/internal/services/tenant"
	"github.com/chronon/photochron/internal/transport/http/handlers"
)

type Dependencies struct {
	TenantResolver *tenantsvc.Resolver
	Extractor      *accesssvc.Extractor
	Gate           *accesssvc.Gate
	MediaService   *mediasvc.Service
	Logger         *zap.Logger
	Config         config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	mediaHandler := handlers.NewMediaHandler(deps.MediaService)
	galleryHandler := handlers.NewGalleryHandler(deps.MediaService)

	tenantMW := TenantMiddleware(deps.TenantResolver, deps.Logger)
	accessMW := AccessMiddleware(deps.Extractor, deps.Gate, deps.Logger)

	r.Get("/healthz", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(tenantMW)
		r.Get("/images", galleryHandler.List)
	})

	r.Route("/admin/api", func(r chi.Router) {
		r.Use(tenantMW, accessMW)
		r.Post("/upload", mediaHandler.Upload)
		r.Delete("/delete/{imageId}", mediaHandler.Delete)
		r.Get("/images/by-name/{photoName}", mediaHandler.GetByName)
	})
}
