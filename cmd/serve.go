package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"compress-pdf/config"
	"compress-pdf/handlers"
	"compress-pdf/logger"
	"compress-pdf/middleware"
	"compress-pdf/models"
	"compress-pdf/pdfpool"
	"compress-pdf/storage"
	"compress-pdf/web"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web compressor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}

			log, err := logger.New("pdfcomp", cfg.Log.Level)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	gin.SetMode(cfg.Server.Mode)

	pool, err := pdfpool.New(pdfpool.Config{
		MinIdle:         cfg.PDFium.MinIdle,
		MaxIdle:         cfg.PDFium.MaxIdle,
		MaxTotal:        cfg.PDFium.MaxTotal,
		InstanceTimeout: cfg.PDFium.InstanceTimeout,
	}, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	db, err := models.NewDatabase(filepath.Join(cfg.Storage.DataDir, models.DatabaseFile))
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := storage.New(cfg.Storage.MediaRoot)
	if err != nil {
		return err
	}

	r := gin.New()
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.RecoveryMiddleware(log))
	r.SetHTMLTemplate(web.Templates())
	// the form parser keeps this much in memory before spilling to disk
	r.MaxMultipartMemory = 32 << 20

	handlers.New(pool, store, db, log, handlers.Config{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Accounts:       cfg.Server.Accounts,
		Compression:    compressOptions(cfg),
	}).Register(r)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: gzhttp.GzipHandler(r),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("starting server", "addr", cfg.Server.Port, "mode", cfg.Server.Mode, "media_root", store.Root())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
