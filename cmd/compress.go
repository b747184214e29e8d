package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"compress-pdf/compress"
	"compress-pdf/config"
	"compress-pdf/logger"
	"compress-pdf/pdfpool"
	"compress-pdf/storage"
	"compress-pdf/util"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type compressFlags struct {
	level  string
	output string
	dryRun bool
}

func newCompressCmd(load func() (*config.Config, error)) *cobra.Command {
	var flags compressFlags

	cmd := &cobra.Command{
		Use:   "compress <file.pdf|dir>...",
		Short: "Compress PDF files from the command line",
		Long: `Recompresses every image of the given PDF files, or of every PDF found under
the given directories. Each result is written next to its input as
compressed_<name>, or into the --output directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := logger.New("pdfcomp", cfg.Log.Level)
			if err != nil {
				return err
			}
			defer log.Sync()

			return runCompress(cmd.Context(), cmd.OutOrStdout(), cfg, log, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.level, "level", "l", compress.Recommended.String(), "Compression level: extreme, recommended or less")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output directory (default: next to each input)")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "List the files without compressing them")
	return cmd
}

func runCompress(ctx context.Context, out io.Writer, cfg *config.Config, log *zap.SugaredLogger, flags compressFlags, args []string) error {
	preset, err := compress.ParsePreset(flags.level)
	if err != nil {
		return err
	}

	found, err := util.GetFilePath(args, ".pdf")
	if err != nil {
		return err
	}
	// results of an earlier run
	var files []string
	for _, file := range found {
		if !strings.HasPrefix(filepath.Base(file), storage.CompressedPrefix) {
			files = append(files, file)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no PDF files found in %v", args)
	}

	if err := checkTargets(files, flags.output); err != nil {
		return err
	}

	if flags.dryRun {
		for _, file := range files {
			size, err := util.FileSize(file)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (%s) -> %s\n", file, humanize.IBytes(uint64(size)), outputPath(file, flags.output))
		}
		return nil
	}

	if flags.output != "" {
		if err := os.MkdirAll(flags.output, 0755); err != nil {
			return err
		}
	}

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

	instance, err := pool.Instance()
	if err != nil {
		return err
	}
	defer instance.Close()

	compressor := compress.New(instance, log, compressOptions(cfg))

	var failed int
	for _, file := range files {
		beginTime := time.Now()
		target := outputPath(file, flags.output)

		report, err := compressor.CompressFile(ctx, file, target, preset)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", file, err)
			continue
		}

		size1, size2, ratio, err := util.CompareFileSize(file, target)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s -> %s: %s -> %s (%.1f%%), %d/%d images, %dms\n",
			file, target,
			humanize.IBytes(uint64(size1)), humanize.IBytes(uint64(size2)), ratio,
			report.Recompressed, report.Images,
			time.Since(beginTime).Milliseconds(),
		)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func outputPath(input, dir string) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, storage.CompressedName(filepath.Base(input)))
}

// checkTargets rejects inputs that would be written to the same output file.
func checkTargets(files []string, dir string) error {
	seen := make(map[string]string, len(files))
	for _, file := range files {
		target := outputPath(file, dir)
		if prev, ok := seen[target]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, file, target)
		}
		seen[target] = file
	}
	return nil
}

func compressOptions(cfg *config.Config) compress.Options {
	return compress.Options{MinImageBytes: cfg.Compression.MinImageBytes}
}
