package handlers

import (
	"net/http"

	"compress-pdf/middleware"
	"compress-pdf/util"

	"github.com/gin-gonic/gin"
)

// Download sends a file of one of the user's jobs, or redirects back to the
// compressor when there is nothing to send.
func (h *Handler) Download(c *gin.Context) {
	token := c.Param("token")
	filename := c.Param("filename")
	owner := middleware.Owner(c)

	job, err := h.db.GetJob(token, owner)
	if err != nil || !job.Downloadable() || (filename != job.CompressedName && filename != job.OriginalName) {
		h.logger.Infow("download not available", "user", owner, "token", token, "file", filename, "error", err)
		c.Redirect(http.StatusFound, "/compressor/")
		return
	}

	ws, err := h.storage.Open(token)
	if err != nil {
		h.logger.Warnw("workspace missing", "token", token, "error", err)
		c.Redirect(http.StatusFound, "/compressor/")
		return
	}

	path := ws.Path(filename)
	if !util.FileExists(path) {
		c.Redirect(http.StatusFound, "/compressor/")
		return
	}

	c.FileAttachment(path, filename)
}
