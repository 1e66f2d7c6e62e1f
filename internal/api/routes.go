package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// NewRouter returns a gin engine with recovery, request IDs, access logging
// and the collage routes.
func NewRouter(h *Handler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(logger))
	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.POST("/collage", h.collageJSON)
		api.POST("/collage/upload", h.collageUpload)
	}
}
