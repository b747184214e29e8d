package compress

import (
	"context"
	"fmt"
	"os"

	"compress-pdf/util"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/enums"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"go.uber.org/zap"
)

type Options struct {
	// MinImageBytes skips images whose raw stream is smaller. Zero processes every image.
	MinImageBytes int
}

// Compressor recompresses the images of PDF documents with one PDFium instance.
// It is not safe for concurrent use; take one instance per request.
type Compressor struct {
	instance pdfium.Pdfium
	logger   *zap.SugaredLogger
	opts     Options
}

func New(instance pdfium.Pdfium, logger *zap.SugaredLogger, opts Options) *Compressor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Compressor{
		instance: instance,
		logger:   logger,
		opts:     opts,
	}
}

// CompressFile recompresses every image of inputPath with preset and saves the
// document to outputPath. Images that fail are left as they are and counted in
// the report; only document level failures are returned as errors.
func (c *Compressor) CompressFile(ctx context.Context, inputPath, outputPath string, preset Preset) (*Report, error) {
	if !preset.Valid() {
		return nil, BadInput("resolve preset", fmt.Errorf("%w: %v", ErrUnknownPreset, preset))
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, Internal("read input", err)
	}

	report := &Report{
		Input:        inputPath,
		Output:       outputPath,
		Preset:       preset,
		OriginalSize: int64(len(data)),
	}

	pdfDoc, err := c.instance.FPDF_LoadMemDocument(&requests.FPDF_LoadMemDocument{
		Data: &data,
	})
	if err != nil {
		return nil, BadInput("load document", err)
	}
	defer c.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: pdfDoc.Document,
	})

	pageCountRes, err := c.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: pdfDoc.Document,
	})
	if err != nil {
		return nil, Internal("get page count", err)
	}
	report.Pages = pageCountRes.PageCount

	for i := 0; i < pageCountRes.PageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, Internal("compress pages", err)
		}
		if err := c.compressPage(pdfDoc.Document, i, preset, report); err != nil {
			return nil, Internal(fmt.Sprintf("compress page %d", i), err)
		}
	}

	if err := c.save(pdfDoc.Document, outputPath); err != nil {
		return nil, Internal("save document", err)
	}

	compressedSize, err := util.FileSize(outputPath)
	if err != nil {
		return nil, Internal("stat output", err)
	}
	report.CompressedSize = compressedSize

	if report.HasImages() && report.CompressedSize >= report.OriginalSize {
		report.SizeIncreased = true
		c.logger.Warnw("compression did not reduce size",
			"original", report.OriginalSize,
			"compressed", report.CompressedSize,
		)
	}

	c.logger.Infow("pdf compressed",
		"preset", preset.String(),
		"pages", report.Pages,
		"images", report.Images,
		"recompressed", report.Recompressed,
		"failed", report.Failed,
		"original_kib", report.OriginalKiB(),
		"compressed_kib", report.CompressedKiB(),
	)

	return report, nil
}

func (c *Compressor) compressPage(document references.FPDF_DOCUMENT, index int, preset Preset, report *Report) error {
	pdfPage, err := c.instance.FPDF_LoadPage(&requests.FPDF_LoadPage{
		Document: document,
		Index:    index,
	})
	if err != nil {
		return fmt.Errorf("load page: %w", err)
	}
	defer c.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{
		Page: pdfPage.Page,
	})

	page := requests.Page{
		ByReference: &pdfPage.Page,
	}

	objectCountRes, err := c.instance.FPDFPage_CountObjects(&requests.FPDFPage_CountObjects{
		Page: page,
	})
	if err != nil {
		return fmt.Errorf("count page objects: %w", err)
	}

	for j := 0; j < objectCountRes.Count; j++ {
		objRes, err := c.instance.FPDFPage_GetObject(&requests.FPDFPage_GetObject{
			Page:  page,
			Index: j,
		})
		if err != nil {
			return fmt.Errorf("get page object %d: %w", j, err)
		}

		objTypeRes, err := c.instance.FPDFPageObj_GetType(&requests.FPDFPageObj_GetType{
			PageObject: objRes.PageObject,
		})
		if err != nil {
			return fmt.Errorf("get page object %d type: %w", j, err)
		}

		// only images are recompressed
		if objTypeRes.Type != enums.FPDF_PAGEOBJ_IMAGE {
			continue
		}

		res := c.recompressImage(page, objRes.PageObject, preset)
		res.Page, res.Object = index, j
		if res.Err != nil {
			c.logger.Warnw("image compression failed",
				"page", index,
				"object", j,
				"filters", res.Filters,
				"error", res.Err,
			)
		}
		report.add(res)
	}

	// rewrite the content stream, flate compressed on save
	_, err = c.instance.FPDFPage_GenerateContent(&requests.FPDFPage_GenerateContent{
		Page: page,
	})
	if err != nil {
		return fmt.Errorf("generate page content: %w", err)
	}

	return nil
}

func (c *Compressor) save(document references.FPDF_DOCUMENT, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}

	_, err = c.instance.FPDF_SaveAsCopy(&requests.FPDF_SaveAsCopy{
		Document:   document,
		FileWriter: f,
		Flags:      requests.SaveFlagNoIncremental,
	})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(outputPath)
		return err
	}

	return nil
}
