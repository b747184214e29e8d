package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"compress-pdf/compress"
	"compress-pdf/middleware"
	"compress-pdf/models"
	"compress-pdf/storage"
	"compress-pdf/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgNoFile       = "No file uploaded"
	msgUnknownLevel = "Unknown compression level"
	msgTooLarge     = "File is too large"
	msgNoImages     = "No images found to compress"
)

// Compress handles the upload form.
func (h *Handler) Compress(c *gin.Context) {
	if c.Request.ContentLength > h.cfg.MaxUploadBytes {
		h.render(c, http.StatusRequestEntityTooLarge, pageData{Error: msgTooLarge})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)

	fileHeader, err := c.FormFile("pdf_file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.render(c, http.StatusRequestEntityTooLarge, pageData{Error: msgTooLarge})
			return
		}
		h.render(c, http.StatusOK, pageData{Error: msgNoFile})
		return
	}

	preset, err := compress.ParsePreset(c.PostForm("compression_level"))
	if err != nil {
		h.render(c, http.StatusBadRequest, pageData{Error: msgUnknownLevel})
		return
	}

	owner := middleware.Owner(c)
	job, report, err := h.process(c.Request.Context(), owner, fileHeader, preset)
	if err != nil {
		h.logger.Errorw("failed to process file",
			"user", owner,
			"file", fileHeader.Filename,
			"preset", preset.String(),
			"error", err,
			zap.Stack("stack"),
		)
		c.Error(err)

		status := http.StatusInternalServerError
		if compress.IsBadInput(err) {
			status = http.StatusBadRequest
		}
		h.render(c, status, pageData{Error: fmt.Sprintf("Failed to process file: %v", err)})
		return
	}

	data := pageData{
		Result: &resultView{
			Token:          job.Token,
			OriginalFile:   job.OriginalName,
			CompressedFile: job.CompressedName,
			OriginalSize:   report.OriginalKiB(),
			CompressedSize: report.CompressedKiB(),
		},
	}
	switch {
	case !report.HasImages():
		data.Message = msgNoImages
	case report.Status() == compress.StatusPartial:
		data.Message = fmt.Sprintf("%d of %d images could not be compressed and were left unchanged", report.Failed, report.Images)
	}
	h.render(c, http.StatusOK, data)
}

// process stores the upload in a fresh workspace, compresses it and records
// the job. The workspace is removed when compression fails.
func (h *Handler) process(ctx context.Context, owner string, fileHeader *multipart.FileHeader, preset compress.Preset) (*models.Job, *compress.Report, error) {
	ws, err := h.storage.NewWorkspace()
	if err != nil {
		return nil, nil, compress.Internal("create workspace", err)
	}

	job := &models.Job{
		Token:          ws.Token,
		Owner:          owner,
		OriginalName:   storage.SanitizeFilename(fileHeader.Filename),
		CompressedName: storage.CompressedName(fileHeader.Filename),
		Preset:         preset.String(),
		OriginalSize:   fileHeader.Size,
	}

	report, err := h.compressUpload(ctx, ws, fileHeader, job, preset)
	if err != nil {
		job.Status = models.JobStatusFailed
		job.Error = err.Error()
		if rmErr := ws.Remove(); rmErr != nil {
			h.logger.Warnw("failed to remove workspace", "token", ws.Token, "error", rmErr)
		}
	} else {
		job.Status = string(report.Status())
		job.OriginalSize = report.OriginalSize
		job.CompressedSize = report.CompressedSize
		job.Images = report.Images
		job.FailedImages = report.Failed
	}

	if dbErr := h.db.CreateJob(job); dbErr != nil {
		h.logger.Errorw("failed to record job", "token", job.Token, "error", dbErr)
		if err == nil {
			err = compress.Internal("record job", dbErr)
		}
	}
	if err != nil {
		return nil, nil, err
	}
	return job, report, nil
}

func (h *Handler) compressUpload(ctx context.Context, ws *storage.Workspace, fileHeader *multipart.FileHeader, job *models.Job, preset compress.Preset) (*compress.Report, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return nil, compress.Internal("open upload", err)
	}
	defer src.Close()

	inputPath, _, err := ws.Save(job.OriginalName, src)
	if err != nil {
		return nil, compress.Internal("save upload", err)
	}
	if !util.FileExists(inputPath) {
		return nil, compress.Internal("save upload", fmt.Errorf("file not found after saving: %s", inputPath))
	}

	instance, err := h.pool.Instance()
	if err != nil {
		return nil, compress.Internal("acquire pdfium", err)
	}
	defer instance.Close()

	h.logger.Debugw("compressing upload", "token", ws.Token, "file", job.OriginalName, "preset", preset.String())

	compressor := compress.New(instance, h.logger.With("token", ws.Token), h.cfg.Compression)
	return compressor.CompressFile(ctx, inputPath, ws.Path(job.CompressedName), preset)
}
