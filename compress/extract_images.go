package compress

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"compress-pdf/util"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/enums"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
)

const (
	JBIG2DecodeFilter    = "JBIG2Decode"    // bilevel, scanned documents
	CCITTFaxDecodeFilter = "CCITTFaxDecode" // bilevel, fax; BitsPerPixel 1
	JPXDecodeFilter      = "JPXDecode"      // JPEG 2000
	FlateDecodeFilter    = "FlateDecode"
	DCTDecodeFilter      = "DCTDecode" // JPEG
)

// generic stream filters; PDFium removes them when returning decoded image data
var streamFilters = map[string]bool{
	FlateDecodeFilter: true,
	"Fl":              true,
	"LZWDecode":       true,
	"LZW":             true,
	"RunLengthDecode": true,
	"RL":              true,
	"ASCII85Decode":   true,
	"A85":             true,
	"ASCIIHexDecode":  true,
	"AHx":             true,
}

func (c *Compressor) recompressImage(page requests.Page, imgObj references.FPDF_PAGEOBJECT, preset Preset) ImageResult {
	res := ImageResult{Quality: preset.Quality()}

	imageMetadataRes, err := c.instance.FPDFImageObj_GetImageMetadata(&requests.FPDFImageObj_GetImageMetadata{
		ImageObject: imgObj,
		Page:        page,
	})
	if err != nil {
		res.Err = fmt.Errorf("get image metadata: %w", err)
		return res
	}
	metadata := imageMetadataRes.ImageMetadata
	res.Original = image.Pt(int(metadata.Width), int(metadata.Height))

	filters, err := GetImageObjectFilter(c.instance, imgObj)
	if err != nil {
		res.Err = err
		return res
	}
	res.Filters = filters

	dataRawRes, err := c.instance.FPDFImageObj_GetImageDataRaw(&requests.FPDFImageObj_GetImageDataRaw{
		ImageObject: imgObj,
	})
	if err != nil {
		res.Err = fmt.Errorf("get raw image data: %w", err)
		return res
	}

	if len(dataRawRes.Data) < c.opts.MinImageBytes {
		res.Skipped = true
		return res
	}

	img, err := c.decodeImage(imgObj, int(metadata.Width), int(metadata.Height), metadata.Colorspace, filters, dataRawRes.Data)
	if err != nil {
		res.Err = fmt.Errorf("decode image: %w", err)
		return res
	}

	data, bounds, err := util.Recompress(img, preset.Quality(), preset.Scale())
	if err != nil {
		res.Err = err
		return res
	}

	_, err = c.instance.FPDFImageObj_LoadJpegFileInline(&requests.FPDFImageObj_LoadJpegFileInline{
		ImageObject: imgObj,
		Page:        &page,
		Count:       1,
		FileData:    data,
	})
	if err != nil {
		res.Err = fmt.Errorf("replace image: %w", err)
		return res
	}

	res.Output = bounds.Size()
	res.Bytes = len(data)
	return res
}

// decodeImage picks the cheapest faithful decoder: JPEG streams are decoded
// directly, plain 8 bit gray/RGB/CMYK samples are wrapped as they are, and
// everything else goes through the PDFium bitmap.
func (c *Compressor) decodeImage(imgObj references.FPDF_PAGEOBJECT, width, height int, colorspace enums.FPDF_COLORSPACE, filters []string, raw []byte) (image.Image, error) {
	if len(filters) == 1 && filters[0] == DCTDecodeFilter {
		return jpeg.Decode(bytes.NewReader(raw))
	}

	if components := colorComponents(colorspace); components > 0 && onlyStreamFilters(filters) {
		decodedRes, err := c.instance.FPDFImageObj_GetImageDataDecoded(&requests.FPDFImageObj_GetImageDataDecoded{
			ImageObject: imgObj,
		})
		if err != nil {
			return nil, fmt.Errorf("get decoded image data: %w", err)
		}
		// other bit depths go through the bitmap
		if len(decodedRes.Data) == width*height*components {
			return util.ImageFromSamples(decodedRes.Data, width, height, components)
		}
	}

	return GetImageFromBitmap(c.instance, imgObj)
}

func colorComponents(colorspace enums.FPDF_COLORSPACE) int {
	switch colorspace {
	case enums.FPDF_COLORSPACE_DEVICEGRAY:
		return 1
	case enums.FPDF_COLORSPACE_DEVICERGB:
		return 3
	case enums.FPDF_COLORSPACE_DEVICECMYK:
		return 4
	}
	return 0
}

func onlyStreamFilters(filters []string) bool {
	for _, filter := range filters {
		if !streamFilters[filter] {
			return false
		}
	}
	return true
}

// GetImageObjectFilter returns the filter names of an image object in stream order.
func GetImageObjectFilter(instance pdfium.Pdfium, imgObj references.FPDF_PAGEOBJECT) ([]string, error) {
	filterCountRes, err := instance.FPDFImageObj_GetImageFilterCount(&requests.FPDFImageObj_GetImageFilterCount{
		ImageObject: imgObj,
	})
	if err != nil {
		return nil, fmt.Errorf("get image filter count: %w", err)
	}

	var filters = make([]string, 0, filterCountRes.Count)
	for k := 0; k < filterCountRes.Count; k++ {
		filterRes, err := instance.FPDFImageObj_GetImageFilter(&requests.FPDFImageObj_GetImageFilter{
			ImageObject: imgObj,
			Index:       k,
		})
		if err != nil {
			return nil, fmt.Errorf("get image filter %d: %w", k, err)
		}
		filters = append(filters, filterRes.ImageFilter)
	}
	return filters, nil
}

type BitmapInfo struct {
	Width     int
	Height    int
	Stride    int
	Format    enums.FPDF_BITMAP_FORMAT
	Data      []byte
	BitmapRef references.FPDF_BITMAP
}

func (b *BitmapInfo) String() string {
	return fmt.Sprintf("width:%d height:%d stride:%d format:%d data len:%d", b.Width, b.Height, b.Stride, b.Format, len(b.Data))
}

// GetBitmapInfo fetches the unscaled bitmap of an image object.
// The caller destroys BitmapRef.
func GetBitmapInfo(instance pdfium.Pdfium, imgObj references.FPDF_PAGEOBJECT) (*BitmapInfo, error) {
	bitmapRes, err := instance.FPDFImageObj_GetBitmap(&requests.FPDFImageObj_GetBitmap{
		ImageObject: imgObj,
	})
	if err != nil {
		return nil, fmt.Errorf("get image bitmap: %w", err)
	}
	bitmap := bitmapRes.Bitmap

	info, err := bitmapInfo(instance, bitmap)
	if err != nil {
		instance.FPDFBitmap_Destroy(&requests.FPDFBitmap_Destroy{
			Bitmap: bitmap,
		})
		return nil, err
	}
	return info, nil
}

func bitmapInfo(instance pdfium.Pdfium, bitmap references.FPDF_BITMAP) (*BitmapInfo, error) {
	strideRes, err := instance.FPDFBitmap_GetStride(&requests.FPDFBitmap_GetStride{
		Bitmap: bitmap,
	})
	if err != nil {
		return nil, fmt.Errorf("get bitmap stride: %w", err)
	}

	formatRes, err := instance.FPDFBitmap_GetFormat(&requests.FPDFBitmap_GetFormat{
		Bitmap: bitmap,
	})
	if err != nil {
		return nil, fmt.Errorf("get bitmap format: %w", err)
	}

	bufferRes, err := instance.FPDFBitmap_GetBuffer(&requests.FPDFBitmap_GetBuffer{
		Bitmap: bitmap,
	})
	if err != nil {
		return nil, fmt.Errorf("get bitmap buffer: %w", err)
	}

	bitmapWidthRes, err := instance.FPDFBitmap_GetWidth(&requests.FPDFBitmap_GetWidth{
		Bitmap: bitmap,
	})
	if err != nil {
		return nil, fmt.Errorf("get bitmap width: %w", err)
	}

	bitmapHeightRes, err := instance.FPDFBitmap_GetHeight(&requests.FPDFBitmap_GetHeight{
		Bitmap: bitmap,
	})
	if err != nil {
		return nil, fmt.Errorf("get bitmap height: %w", err)
	}

	return &BitmapInfo{
		Width:     bitmapWidthRes.Width,
		Height:    bitmapHeightRes.Height,
		Stride:    strideRes.Stride,
		Format:    formatRes.Format,
		Data:      bufferRes.Buffer,
		BitmapRef: bitmap,
	}, nil
}

// GetImageFromBitmap renders an image object through PDFium, which applies
// the color space and decode array. BGRA alpha is kept in the returned image
// but lost once encoded as JPEG.
func GetImageFromBitmap(instance pdfium.Pdfium, imgObj references.FPDF_PAGEOBJECT) (image.Image, error) {
	bitmapInfo, err := GetBitmapInfo(instance, imgObj)
	if err != nil {
		return nil, err
	}
	defer instance.FPDFBitmap_Destroy(&requests.FPDFBitmap_Destroy{
		Bitmap: bitmapInfo.BitmapRef,
	})

	_, img, err := util.RenderImage(bitmapInfo.Data, bitmapInfo.Width, bitmapInfo.Height, bitmapInfo.Stride, bitmapInfo.Format)
	if err != nil {
		return nil, fmt.Errorf("render bitmap (%s): %w", bitmapInfo, err)
	}
	return img, nil
}
