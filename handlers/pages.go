package handlers

import (
	"net/http"

	"compress-pdf/compress"
	"compress-pdf/middleware"
	"compress-pdf/models"

	"github.com/gin-gonic/gin"
)

type resultView struct {
	Token          string
	OriginalFile   string
	CompressedFile string
	OriginalSize   int64 // KiB
	CompressedSize int64 // KiB
}

type pageData struct {
	User    string
	Presets []string
	Error   string
	Message string
	Result  *resultView
	Jobs    []models.Job
}

func presetNames() []string {
	var names []string
	for _, p := range compress.Presets() {
		names = append(names, p.String())
	}
	return names
}

// LoginPage sends signed in users straight to the compressor.
func (h *Handler) LoginPage(c *gin.Context) {
	if _, ok := middleware.Authenticated(c.Request, h.cfg.Accounts); ok {
		c.Redirect(http.StatusFound, "/compressor/")
		return
	}
	c.HTML(http.StatusOK, "login.html", nil)
}

func (h *Handler) Logout(c *gin.Context) {
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) CompressorPage(c *gin.Context) {
	h.render(c, http.StatusOK, pageData{})
}

func (h *Handler) render(c *gin.Context, status int, data pageData) {
	data.User = middleware.Owner(c)
	data.Presets = presetNames()

	jobs, err := h.db.RecentJobs(data.User, h.cfg.RecentJobs)
	if err != nil {
		h.logger.Warnw("failed to list recent jobs", "user", data.User, "error", err)
	}
	data.Jobs = jobs

	c.HTML(status, "compressor.html", data)
}
