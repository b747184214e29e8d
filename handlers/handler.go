package handlers

import (
	"compress-pdf/compress"
	"compress-pdf/middleware"
	"compress-pdf/models"
	"compress-pdf/storage"

	"github.com/gin-gonic/gin"
	"github.com/klippa-app/go-pdfium"
	"go.uber.org/zap"
)

// InstancePool hands out PDFium instances; closing an instance returns it.
type InstancePool interface {
	Instance() (pdfium.Pdfium, error)
}

type Config struct {
	MaxUploadBytes int64
	Accounts       map[string]string
	Compression    compress.Options
	RecentJobs     int
}

type Handler struct {
	pool    InstancePool
	storage *storage.Storage
	db      *models.Database
	logger  *zap.SugaredLogger
	cfg     Config
}

func New(pool InstancePool, store *storage.Storage, db *models.Database, logger *zap.SugaredLogger, cfg Config) *Handler {
	if cfg.RecentJobs <= 0 {
		cfg.RecentJobs = 10
	}
	return &Handler{
		pool:    pool,
		storage: store,
		db:      db,
		logger:  logger,
		cfg:     cfg,
	}
}

// Register mounts every route. /health, / and /logout/ need no credentials.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", HealthCheck)
	r.GET("/", h.LoginPage)
	r.GET("/logout/", h.Logout)

	authorized := r.Group("/", middleware.BasicAuth(h.cfg.Accounts))
	{
		authorized.GET("/compressor/", h.CompressorPage)
		authorized.POST("/compressor/", h.Compress)
		authorized.GET("/download/:token/:filename", h.Download)
	}
}
