package compress

import (
	"image"

	"compress-pdf/util"
)

type Status string

const (
	StatusOK Status = "ok"
	// StatusPartial means the document was written but some images were left untouched.
	StatusPartial Status = "partial"
)

// ImageResult describes one image page object.
type ImageResult struct {
	Page    int
	Object  int
	Filters []string

	Original image.Point
	Output   image.Point
	Bytes    int
	Quality  int

	Skipped bool
	Err     error
}

type Report struct {
	Input  string
	Output string
	Preset Preset

	Pages        int
	Images       int
	Recompressed int
	Skipped      int
	Failed       int

	OriginalSize   int64
	CompressedSize int64
	SizeIncreased  bool

	Results []ImageResult
}

func (r *Report) HasImages() bool {
	return r.Images > 0
}

func (r *Report) Status() Status {
	if r.Failed > 0 {
		return StatusPartial
	}
	return StatusOK
}

func (r *Report) OriginalKiB() int64 {
	return util.KiB(r.OriginalSize)
}

func (r *Report) CompressedKiB() int64 {
	return util.KiB(r.CompressedSize)
}

func (r *Report) add(res ImageResult) {
	r.Images++
	switch {
	case res.Err != nil:
		r.Failed++
	case res.Skipped:
		r.Skipped++
	default:
		r.Recompressed++
	}
	r.Results = append(r.Results, res)
}
