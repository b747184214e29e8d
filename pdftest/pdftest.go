// Package pdftest writes small PDF documents for tests: pages with image
// XObjects in any color space or filter, including broken streams that a
// PDF library would refuse to produce.
package pdftest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zlib"
)

type Image struct {
	Width      int
	Height     int
	ColorSpace string // DeviceGray, DeviceRGB or DeviceCMYK
	Filter     string
	Data       []byte // stream data, already encoded with Filter
}

type Page struct {
	Width  float64
	Height float64
	Images []Image
}

// Build returns a PDF with one page per entry. Every page draws its images at
// half the page size followed by a filled rectangle.
func Build(pages []Page) []byte {
	var buf bytes.Buffer
	var offsets []int
	next := 3 // 1 catalog, 2 pages

	begin := func(num int) {
		for len(offsets) < num {
			offsets = append(offsets, 0)
		}
		offsets[num-1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", num)
	}
	writeStream := func(num int, dict string, data []byte) {
		begin(num)
		fmt.Fprintf(&buf, "<< %s /Length %d >>\nstream\n", dict, len(data))
		buf.Write(data)
		buf.WriteString("\nendstream\nendobj\n")
	}

	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	type pageNums struct{ page, content int }
	nums := make([]pageNums, len(pages))
	for i := range pages {
		nums[i] = pageNums{page: next, content: next + 1}
		next += 2
	}

	begin(1)
	buf.WriteString("<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	var kids bytes.Buffer
	for _, n := range nums {
		fmt.Fprintf(&kids, "%d 0 R ", n.page)
	}
	begin(2)
	fmt.Fprintf(&buf, "<< /Type /Pages /Kids [ %s] /Count %d >>\nendobj\n", kids.String(), len(pages))

	for i, p := range pages {
		var xobjects, content bytes.Buffer
		imageNums := make([]int, len(p.Images))
		for k := range p.Images {
			imageNums[k] = next
			next++
			fmt.Fprintf(&xobjects, "/Im%d %d 0 R ", k, imageNums[k])
			fmt.Fprintf(&content, "q %.2f 0 0 %.2f 0 0 cm /Im%d Do Q\n", p.Width/2, p.Height/2, k)
		}
		content.WriteString("0 0 1 rg 10 10 50 50 re f\n")

		begin(nums[i].page)
		fmt.Fprintf(&buf, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.2f %.2f] /Resources << /XObject << %s>> >> /Contents %d 0 R >>\nendobj\n",
			p.Width, p.Height, xobjects.String(), nums[i].content)

		writeStream(nums[i].content, "", content.Bytes())

		for k, img := range p.Images {
			dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /%s /BitsPerComponent 8 /Filter /%s",
				img.Width, img.Height, img.ColorSpace, img.Filter)
			writeStream(imageNums[k], dict, img.Data)
		}
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

// WriteFile builds pages into dir/name and returns the path.
func WriteFile(dir, name string, pages []Page) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Deflate zlib-compresses data for FlateDecode streams.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		panic(err)
	}
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// CMYKImage is a flate encoded DeviceCMYK gradient.
func CMYKImage(width, height int) Image {
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			pix[i] = uint8(x * 255 / width)
			pix[i+1] = uint8(y * 255 / height)
			pix[i+2] = 64
			pix[i+3] = 16
		}
	}
	return Image{Width: width, Height: height, ColorSpace: "DeviceCMYK", Filter: "FlateDecode", Data: Deflate(pix)}
}

// GrayImage is a flate encoded DeviceGray ramp.
func GrayImage(width, height int) Image {
	pix := make([]byte, width*height)
	for i := range pix {
		pix[i] = uint8(i % 256)
	}
	return Image{Width: width, Height: height, ColorSpace: "DeviceGray", Filter: "FlateDecode", Data: Deflate(pix)}
}

// JPEGImage is a DeviceRGB DCTDecode image encoded at quality 95.
func JPEGImage(width, height int) Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), uint8(x ^ y), 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		panic(err)
	}
	return Image{Width: width, Height: height, ColorSpace: "DeviceRGB", Filter: "DCTDecode", Data: buf.Bytes()}
}

// BrokenJPEGImage claims DCTDecode but carries garbage.
func BrokenJPEGImage(width, height int) Image {
	return Image{Width: width, Height: height, ColorSpace: "DeviceRGB", Filter: "DCTDecode", Data: []byte("this is not a jpeg stream")}
}
