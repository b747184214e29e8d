package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"compress-pdf/pdftest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := pdftest.WriteFile(dir, "photo.pdf", []pdftest.Page{
		{Width: 300, Height: 300, Images: []pdftest.Image{pdftest.JPEGImage(300, 300)}},
	})
	require.NoError(t, err)
	_, err = pdftest.WriteFile(dir, "compressed_old.pdf", []pdftest.Page{{Width: 10, Height: 10}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644))
	return dir
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PDFCOMP_CONFIG", "")
	t.Setenv("PDFCOMP_ACCOUNTS", "")
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCompressCommand(t *testing.T) {
	dir := writeInputs(t)
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := runRoot(t, "compress", "--level", "extreme", "-o", outDir, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "photo.pdf")
	assert.Contains(t, out, "1/1 images")
	assert.NotContains(t, out, "compressed_old.pdf ->")

	assert.FileExists(t, filepath.Join(outDir, "compressed_photo.pdf"))
	assert.NoFileExists(t, filepath.Join(outDir, "compressed_compressed_old.pdf"))
}

func TestCompressCommandDryRun(t *testing.T) {
	dir := writeInputs(t)

	out, err := runRoot(t, "compress", "-n", filepath.Join(dir, "photo.pdf"))
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "compressed_photo.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "compressed_photo.pdf"))
}

func TestCompressCommandErrors(t *testing.T) {
	dir := writeInputs(t)

	_, err := runRoot(t, "compress", "--level", "maximum", dir)
	assert.ErrorContains(t, err, "unknown compression level")

	_, err = runRoot(t, "compress", t.TempDir())
	assert.ErrorContains(t, err, "no PDF files found")

	_, err = runRoot(t, "compress")
	assert.Error(t, err)

	broken := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(broken, []byte("garbage"), 0644))
	out, err := runRoot(t, "compress", broken)
	assert.ErrorContains(t, err, "1 of 1 files failed")
	assert.Contains(t, out, "bad_input")
}

func TestServeNeedsAccounts(t *testing.T) {
	_, err := runRoot(t, "serve")
	assert.ErrorContains(t, err, "accounts")
}

func TestCompressCommandRejectsCollidingTargets(t *testing.T) {
	first := writeInputs(t)
	second := writeInputs(t)
	outDir := filepath.Join(t.TempDir(), "out")

	_, err := runRoot(t, "compress", "-o", outDir, first, second)
	require.Error(t, err)
	assert.ErrorContains(t, err, filepath.Join(first, "photo.pdf"))
	assert.ErrorContains(t, err, filepath.Join(second, "photo.pdf"))
	assert.NoDirExists(t, outDir)

	// next to their inputs the same names do not collide
	_, err = runRoot(t, "compress", "-n", first, second)
	assert.NoError(t, err)
}

func TestCheckTargets(t *testing.T) {
	files := []string{filepath.Join("a", "x.pdf"), filepath.Join("b", "x.pdf")}
	assert.NoError(t, checkTargets(files, ""))
	assert.ErrorContains(t, checkTargets(files, "out"), filepath.Join("out", "compressed_x.pdf"))
	assert.NoError(t, checkTargets(files[:1], "out"))
}
