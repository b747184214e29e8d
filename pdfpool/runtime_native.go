//go:build !pdfium_webassembly

package pdfpool

import (
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/single_threaded"
)

const runtimeName = "single_threaded"

// initPool links the native PDFium library through cgo. The single threaded
// runtime serializes all instances, pool sizes only bound waiting requests.
func initPool(cfg Config) (pdfium.Pool, error) {
	return single_threaded.Init(single_threaded.Config{}), nil
}
