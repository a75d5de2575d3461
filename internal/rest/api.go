package rest

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func NewApi(router *gin.Engine, h *Handlers, staticDir string) {
	images := router.Group("/api")
	{
		images.GET("/images", h.SearchImages)
		images.POST("/images", h.SaveImage)
		images.GET("/saved-images", h.ListSavedImages)
		images.GET("/saved-images/:id/raw", h.GetRawImage)
	}

	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	serveStatic(router, staticDir)
}

// serveStatic answers unmatched GET and HEAD requests from dir, when it
// exists.
func serveStatic(router *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Warn().Str("dir", dir).Msg("Static directory not found; front-end disabled")
		return
	}

	files := http.FileServer(http.Dir(dir))
	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	})
}
