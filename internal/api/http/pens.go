package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/pen"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/preview"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/gin-gonic/gin"
	"golang.org/x/net/html"
)

// maxTrendingLimit caps ?limit on the trending list
const maxTrendingLimit = 100

type searchQuery struct {
	Q        string       `form:"q"`
	SortBy   pen.SortBy   `form:"sortBy"`
	FilterBy pen.FilterBy `form:"filterBy"`
}

type forkRequest struct {
	Author *pen.Author `json:"author"`
}

// ListPens returns every pen, most recently updated first
func (h *Handlers) ListPens(c *gin.Context) {
	pens, err := h.store.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pens)
}

// TrendingPens returns the most popular pens
func (h *Handlers) TrendingPens(c *gin.Context) {
	limit := pen.DefaultTrendingLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxTrendingLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", maxTrendingLimit)})
			return
		}
		limit = n
	}

	pens, err := h.store.Trending(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pens)
}

// SearchPens matches ?q against titles, authors or tags
func (h *Handlers) SearchPens(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	pens, err := h.store.Search(c.Request.Context(), q.Q, pen.SearchOptions{SortBy: q.SortBy, FilterBy: q.FilterBy})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pens)
}

// GetPen returns one pen and counts the view
func (h *Handlers) GetPen(c *gin.Context) {
	p, err := h.store.View(c.Request.Context(), id.PenID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreatePen stores a new pen. An empty body creates an untitled pen.
func (h *Handlers) CreatePen(c *gin.Context) {
	var fields pen.Fields
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&fields); err != nil {
			badRequest(c, err)
			return
		}
	}

	p, err := h.store.Create(c.Request.Context(), fields)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdatePen changes the fields present in the body
func (h *Handlers) UpdatePen(c *gin.Context) {
	var fields pen.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.store.Update(c.Request.Context(), id.PenID(c.Param("id")), fields)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePen removes a pen
func (h *Handlers) DeletePen(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), id.PenID(c.Param("id"))); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LikePen increments a pen's likes
func (h *Handlers) LikePen(c *gin.Context) {
	p, err := h.store.Like(c.Request.Context(), id.PenID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ForkPen copies a pen. The body may name the new author.
func (h *Handlers) ForkPen(c *gin.Context) {
	var req forkRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	p, err := h.store.Fork(c.Request.Context(), id.PenID(c.Param("id")), req.Author)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// EmbedPen returns an iframe snippet that shows the pen's preview with the
// same sandbox as the editor
func (h *Handlers) EmbedPen(c *gin.Context) {
	p, err := h.store.Get(c.Request.Context(), id.PenID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}

	src := baseURL(c.Request) + "/pens/" + string(p.ID) + "/preview"
	snippet := fmt.Sprintf(`<iframe src="%s" title="%s" sandbox="%s" loading="lazy" width="100%%" height="400" style="border:0"></iframe>`,
		html.EscapeString(src), html.EscapeString(p.Title), preview.SandboxPolicy)

	c.JSON(http.StatusOK, gin.H{
		"id":    p.ID,
		"title": p.Title,
		"url":   src,
		"html":  snippet,
	})
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
