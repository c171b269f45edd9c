package http

import "github.com/gin-gonic/gin"

// Register mounts the REST routes, plus the editor routes when a hub is set
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics/json", h.MetricsJSON)

	pens := router.Group("/pens")
	{
		pens.GET("", h.ListPens)
		pens.POST("", h.CreatePen)
		pens.GET("/trending", h.TrendingPens)
		pens.GET("/search", h.SearchPens)
		pens.GET("/:id", h.GetPen)
		pens.PUT("/:id", h.UpdatePen)
		pens.DELETE("/:id", h.DeletePen)
		pens.POST("/:id/like", h.LikePen)
		pens.POST("/:id/fork", h.ForkPen)
		pens.GET("/:id/embed", h.EmbedPen)
		pens.GET("/:id/preview", h.PreviewPen)
		pens.POST("/:id/run", h.RunPen)
	}

	router.POST("/preview/render", h.RenderPreview)

	if h.hub != nil {
		router.GET("/editor", h.hub.ServeEditor)
		router.GET("/editor/host.js", h.hub.ServeHostScript)
		router.GET("/editor/stream", h.hub.HandleConnection)
	}
}
