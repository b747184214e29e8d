package main

import (
	"fmt"
	"os"

	"compress-pdf/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pdfcomp:", err)
		os.Exit(1)
	}
}
