package http

import (
	"errors"
	"net/http"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/pen"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/preview"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/utils"
	"github.com/gin-gonic/gin"
)

var errNoSandbox = errors.New("headless runs are disabled")

type renderRequest struct {
	preview.SourceBundle
	Title string `json:"title"`
}

// PreviewPen serves the pen's assembled document. The response carries the
// same sandbox as the editor frame, so opening it directly runs the script
// in an opaque origin.
func (h *Handlers) PreviewPen(c *gin.Context) {
	p, err := h.store.Get(c.Request.Context(), id.PenID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}

	etag := `"` + utils.DefaultHasher().HashOrdered(p.Bundle().Fingerprint(), p.Title) + `"`
	setPreviewHeaders(c)
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	doc, err := preview.Render(p.Bundle(), preview.WithTitle(p.Title))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}

// RenderPreview assembles an ad hoc bundle. ?format=json returns the
// document with its generation and fingerprint instead of the HTML.
func (h *Handlers) RenderPreview(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	var opts []preview.AssembleOption
	if req.Title != "" {
		if err := utils.ValidateTitle(req.Title); err != nil {
			badRequest(c, err)
			return
		}
		opts = append(opts, preview.WithTitle(pen.SanitizeText(req.Title)))
	}

	doc, err := preview.Render(req.SourceBundle, opts...)
	if err != nil {
		h.fail(c, err)
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, doc)
		return
	}
	setPreviewHeaders(c)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}

// RunPen executes the pen's script headlessly and returns the console
// entries it would have produced in the preview
func (h *Handlers) RunPen(c *gin.Context) {
	if h.pool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoSandbox.Error(), "retryable": false})
		return
	}

	p, err := h.store.Get(c.Request.Context(), id.PenID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.pool.Run(c.Request.Context(), p.Bundle())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          p.ID,
		"entries":     result.Entries(id.NewMountID()),
		"changes":     result.Changes,
		"interrupted": result.Interrupted,
		"duration_ms": result.Duration.Milliseconds(),
	})
}

func setPreviewHeaders(c *gin.Context) {
	c.Header("Content-Security-Policy", preview.ContentSecurityPolicy)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Referrer-Policy", "no-referrer")
}
