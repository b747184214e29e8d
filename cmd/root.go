package cmd

import (
	"os"

	"compress-pdf/config"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the pdfcomp command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "pdfcomp",
		Short:         "Shrink PDF files by recompressing their images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("PDFCOMP_CONFIG"), "YAML config file (env PDFCOMP_CONFIG)")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}
	rootCmd.AddCommand(newServeCmd(load), newCompressCmd(load))
	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}
