package util

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"

	"github.com/klippa-app/go-pdfium/enums"
	"github.com/nfnt/resize"
)

// RenderImage converts a PDFium bitmap buffer into an image.
// isAlphaValid reports whether a BGRA bitmap carries any non-opaque pixel.
func RenderImage(data []byte, width int, height int, stride int, format enums.FPDF_BITMAP_FORMAT) (isAlphaValid bool, img image.Image, err error) {
	if width <= 0 || height <= 0 {
		return false, nil, fmt.Errorf("invalid bitmap size %dx%d", width, height)
	}

	switch format {
	case enums.FPDF_BITMAP_FORMAT_GRAY:
		if len(data) < (height-1)*stride+width {
			return false, nil, fmt.Errorf("gray bitmap buffer too short: %d", len(data))
		}
		gray := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			copy(gray.Pix[y*gray.Stride:y*gray.Stride+width], data[y*stride:y*stride+width])
		}
		return false, gray, nil

	case enums.FPDF_BITMAP_FORMAT_BGR, enums.FPDF_BITMAP_FORMAT_BGRX, enums.FPDF_BITMAP_FORMAT_BGRA:
		bpp := 4
		if format == enums.FPDF_BITMAP_FORMAT_BGR {
			bpp = 3
		}
		if len(data) < (height-1)*stride+width*bpp {
			return false, nil, fmt.Errorf("bitmap buffer too short: %d", len(data))
		}

		rgba := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			src := data[y*stride:]
			dst := rgba.Pix[y*rgba.Stride:]
			for x := 0; x < width; x++ {
				s, d := x*bpp, x*4
				// BGR(A) to RGBA
				dst[d] = src[s+2]
				dst[d+1] = src[s+1]
				dst[d+2] = src[s]
				dst[d+3] = 255
				if format == enums.FPDF_BITMAP_FORMAT_BGRA {
					dst[d+3] = src[s+3]
					if src[s+3] != 255 {
						isAlphaValid = true
					}
				}
			}
		}
		return isAlphaValid, rgba, nil
	}

	return false, nil, fmt.Errorf("unsupported bitmap format: %d", format)
}

// ImageFromSamples wraps decoded 8 bit samples of a PDF image.
// components selects the layout: 1 gray, 3 RGB, 4 CMYK.
func ImageFromSamples(data []byte, width, height, components int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	need := width * height * components
	if len(data) < need {
		return nil, fmt.Errorf("decoded data too short: got %d bytes, need %d", len(data), need)
	}

	rect := image.Rect(0, 0, width, height)
	switch components {
	case 1:
		return &image.Gray{Pix: data[:need], Stride: width, Rect: rect}, nil
	case 3:
		rgba := image.NewRGBA(rect)
		for i, j := 0, 0; i < need; i, j = i+3, j+4 {
			rgba.Pix[j] = data[i]
			rgba.Pix[j+1] = data[i+1]
			rgba.Pix[j+2] = data[i+2]
			rgba.Pix[j+3] = 255
		}
		return rgba, nil
	case 4:
		return &image.CMYK{Pix: data[:need], Stride: width * 4, Rect: rect}, nil
	}

	return nil, fmt.Errorf("unsupported component count: %d", components)
}

// NormalizeColor converts CMYK images to RGB. Other color models are returned as is.
func NormalizeColor(img image.Image) image.Image {
	if img.ColorModel() != color.CMYKModel {
		return img
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// ScaledSize returns floor(width*scale) x floor(height*scale), each clamped to at least 1.
func ScaledSize(width, height int, scale float64) (int, int) {
	w := int(math.Floor(float64(width) * scale))
	h := int(math.Floor(float64(height) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Downscale resamples img by scale with a Lanczos3 filter.
func Downscale(img image.Image, scale float64) image.Image {
	w, h := ScaledSize(img.Bounds().Dx(), img.Bounds().Dy(), scale)
	return resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
}

func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Recompress normalizes, downscales and JPEG-encodes img.
func Recompress(img image.Image, quality int, scale float64) ([]byte, image.Rectangle, error) {
	if img == nil {
		return nil, image.Rectangle{}, fmt.Errorf("nil image")
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, image.Rectangle{}, fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())
	}

	resized := Downscale(NormalizeColor(img), scale)

	data, err := EncodeJPEG(resized, quality)
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return data, resized.Bounds(), nil
}
