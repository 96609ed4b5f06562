package http

import (
	"fmt"

	"github.com/GriffinCanCode/rnpad/internal/api/http/web"
	"github.com/gin-gonic/gin"
)

// Register mounts pages and the JSON API on router. identity must resolve the
// browser identity; it runs only on routes that need a workspace.
func (h *Handlers) Register(router *gin.Engine, identity gin.HandlerFunc, extra ...func(*gin.RouterGroup)) error {
	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", web.Static())

	router.GET("/", h.Landing)
	router.GET("/health", h.Health)

	pages := router.Group("/", identity)
	pages.GET("/editor", h.Editor)

	api := router.Group("/api", identity)
	api.GET("/workspace", h.GetWorkspace)
	api.PUT("/source", h.PutSource)
	api.PUT("/device", h.PutDevice)
	api.POST("/run", h.Run)
	api.GET("/preview/open", h.OpenPreview)

	for _, fn := range extra {
		fn(api)
	}
	return nil
}
