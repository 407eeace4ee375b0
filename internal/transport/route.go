package transport

import (
	"github.com/labstack/echo/v4"

	"github.com/ArubikU/blobcraft/internal/service"
)

type Handler struct {
	svc *service.Service
}

func SetupRoute(e *echo.Echo, svc *service.Service) {
	h := &Handler{svc: svc}
	api := e.Group("/api/v1")

	api.POST("/upload", h.Upload)
	api.POST("/upload/init", h.InitUpload)
	api.POST("/upload/chunk/:id/:index", h.WriteChunk)
	api.GET("/upload/progress/:id", h.Progress)
	api.DELETE("/upload/:id", h.CancelUpload)

	api.GET("/blobs", h.ListBlobs)
	api.GET("/blobs/:id", h.Metadata)
	api.DELETE("/blobs/:id", h.DeleteBlob)
	api.GET("/stats", h.Stats)

	e.GET("/blob/:id", h.Download)
	e.GET("/public/:id", h.DownloadPublic)
}
