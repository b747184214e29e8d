//go:build pdfium_webassembly

package pdfpool

import (
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/webassembly"
)

const runtimeName = "webassembly"

// initPool runs PDFium compiled to WebAssembly under wazero, no cgo needed.
// The bundled build of this go-pdfium release cannot read image metadata or
// bitmaps, so image recompression fails on it.
func initPool(cfg Config) (pdfium.Pool, error) {
	return webassembly.Init(webassembly.Config{
		MinIdle:  cfg.MinIdle,
		MaxIdle:  cfg.MaxIdle,
		MaxTotal: cfg.MaxTotal,
	})
}
