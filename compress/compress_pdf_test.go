package compress

import (
	"bytes"
	"context"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"compress-pdf/pdftest"

	"github.com/klippa-app/go-pdfium"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressFixture(t *testing.T, instance pdfium.Pdfium, pages []pdftest.Page, preset Preset, opts Options) (*Report, string, error) {
	t.Helper()
	input := writePDF(t, pages)
	output := filepath.Join(filepath.Dir(input), "compressed_input_file.pdf")
	report, err := New(instance, nil, opts).CompressFile(context.Background(), input, output, preset)
	return report, output, err
}

func assertJPEG(t *testing.T, img inspectedImage, width, height, quality int, model color.Model) {
	t.Helper()
	assert.Equal(t, width, img.width)
	assert.Equal(t, height, img.height)
	assert.Equal(t, []string{DCTDecodeFilter}, img.filters)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(img.raw))
	require.NoError(t, err)
	assert.Equal(t, width, cfg.Width)
	assert.Equal(t, height, cfg.Height)
	assert.Equal(t, model, cfg.ColorModel)
	assert.Equal(t, expectedLumaDC(quality), lumaDC(t, img.raw))
}

func TestCompressFileCMYKPageAndBlankPage(t *testing.T) {
	pages := []pdftest.Page{
		{Width: 612, Height: 792, Images: []pdftest.Image{pdftest.CMYKImage(800, 600)}},
		{Width: 400, Height: 300},
	}

	instance := testInstance(t)
	report, output, err := compressFixture(t, instance, pages, Recommended, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 1, report.Images)
	assert.Equal(t, 1, report.Recompressed)
	assert.Equal(t, 0, report.Failed)
	assert.True(t, report.HasImages())
	assert.Equal(t, StatusOK, report.Status())
	assert.Equal(t, report.OriginalSize/1024, report.OriginalKiB())
	assert.Equal(t, report.CompressedSize/1024, report.CompressedKiB())

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.Equal(t, 0, res.Page)
	assert.Equal(t, 800, res.Original.X)
	assert.Equal(t, 600, res.Original.Y)
	assert.Equal(t, 600, res.Output.X)
	assert.Equal(t, 450, res.Output.Y)
	assert.Equal(t, 60, res.Quality)
	assert.NoError(t, res.Err)

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), report.CompressedSize)

	out := inspectPDF(t, instance, output)
	require.Len(t, out, 2)

	assert.Equal(t, 612.0, out[0].width)
	require.Len(t, out[0].images, 1)
	assertJPEG(t, out[0].images[0], 600, 450, 60, color.YCbCrModel)

	assert.Equal(t, 400.0, out[1].width)
	assert.Equal(t, 300.0, out[1].height)
	assert.Empty(t, out[1].images)
	assert.Equal(t, 1, out[1].objects)
}

func TestCompressFileExtremeRGB(t *testing.T) {
	pages := []pdftest.Page{
		{Width: 595, Height: 842, Images: []pdftest.Image{pdftest.JPEGImage(1000, 1000)}},
	}

	instance := testInstance(t)
	report, output, err := compressFixture(t, instance, pages, Extreme, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Recompressed)

	out := inspectPDF(t, instance, output)
	require.Len(t, out, 1)
	require.Len(t, out[0].images, 1)
	assertJPEG(t, out[0].images[0], 500, 500, 20, color.YCbCrModel)
}

func TestCompressFileWithoutImages(t *testing.T) {
	pages := []pdftest.Page{
		{Width: 100, Height: 200},
		{Width: 300, Height: 400},
		{Width: 500, Height: 600},
	}

	instance := testInstance(t)
	report, output, err := compressFixture(t, instance, pages, Less, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Pages)
	assert.False(t, report.HasImages())
	assert.False(t, report.SizeIncreased)
	assert.Empty(t, report.Results)

	out := inspectPDF(t, instance, output)
	require.Len(t, out, 3)
	for i, p := range pages {
		assert.Equal(t, p.Width, out[i].width, "page %d", i)
		assert.Equal(t, p.Height, out[i].height, "page %d", i)
		assert.Empty(t, out[i].images)
	}
}

func TestCompressFileKeepsBrokenImage(t *testing.T) {
	broken := pdftest.BrokenJPEGImage(10, 10)
	pages := []pdftest.Page{
		{Width: 612, Height: 792, Images: []pdftest.Image{broken, pdftest.GrayImage(100, 50)}},
		{Width: 612, Height: 792, Images: []pdftest.Image{pdftest.JPEGImage(64, 64)}},
	}

	instance := testInstance(t)
	report, output, err := compressFixture(t, instance, pages, Less, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Images)
	assert.Equal(t, 2, report.Recompressed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, StatusPartial, report.Status())

	var failed []ImageResult
	for _, res := range report.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, 0, failed[0].Page)
	assert.Equal(t, []string{DCTDecodeFilter}, failed[0].Filters)

	out := inspectPDF(t, instance, output)
	require.Len(t, out, 2)
	require.Len(t, out[0].images, 2)

	var kept, gray *inspectedImage
	for i := range out[0].images {
		img := &out[0].images[i]
		if bytes.Equal(img.raw, broken.Data) {
			kept = img
		} else {
			gray = img
		}
	}
	require.NotNil(t, kept, "broken image must be left untouched")
	assert.Equal(t, 10, kept.width)
	require.NotNil(t, gray)
	assertJPEG(t, *gray, 90, 45, 90, color.GrayModel)

	require.Len(t, out[1].images, 1)
	assertJPEG(t, out[1].images[0], 57, 57, 90, color.YCbCrModel)
}

func TestCompressFileMinImageBytes(t *testing.T) {
	img := pdftest.JPEGImage(40, 40)
	pages := []pdftest.Page{
		{Width: 200, Height: 200, Images: []pdftest.Image{img}},
	}

	instance := testInstance(t)
	report, output, err := compressFixture(t, instance, pages, Extreme, Options{MinImageBytes: len(img.Data) + 1})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Images)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Recompressed)
	assert.True(t, report.HasImages())

	out := inspectPDF(t, instance, output)
	require.Len(t, out[0].images, 1)
	assert.Equal(t, 40, out[0].images[0].width)
	assert.Equal(t, img.Data, out[0].images[0].raw)
}

func TestCompressFileRejectsUnknownPreset(t *testing.T) {
	_, output, err := compressFixture(t, testInstance(t), []pdftest.Page{{Width: 10, Height: 10}}, Preset(42), Options{})
	require.Error(t, err)
	assert.True(t, IsBadInput(err))
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.NoFileExists(t, output)
}

func TestCompressFileCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(input, []byte("definitely not a pdf"), 0644))

	_, err := New(testInstance(t), nil, Options{}).CompressFile(context.Background(), input, filepath.Join(dir, "out.pdf"), Recommended)
	require.Error(t, err)
	assert.True(t, IsBadInput(err))
}

func TestCompressFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := New(testInstance(t), nil, Options{}).CompressFile(context.Background(), filepath.Join(dir, "gone.pdf"), filepath.Join(dir, "out.pdf"), Recommended)
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCompressFileCancelled(t *testing.T) {
	input := writePDF(t, []pdftest.Page{{Width: 10, Height: 10}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	output := filepath.Join(t.TempDir(), "out.pdf")
	_, err := New(testInstance(t), nil, Options{}).CompressFile(ctx, input, output, Recommended)
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, output)
}
