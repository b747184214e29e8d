package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// KiB converts a byte count to whole kibibytes, truncating.
func KiB(size int64) int64 {
	return size / 1024
}

func FileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}

// CompareFileSize returns the sizes of both files and the ratio size2/size1 in percent.
func CompareFileSize(filePath1 string, filePath2 string) (size1, size2 int64, ratio float64, err error) {
	if size1, err = FileSize(filePath1); err != nil {
		return 0, 0, 0, err
	}
	if size2, err = FileSize(filePath2); err != nil {
		return 0, 0, 0, err
	}
	if size1 > 0 {
		ratio = float64(size2) / float64(size1) * 100
	}
	return size1, size2, ratio, nil
}

// SaveAtomic writes r to filePath through a temp file in the same directory.
func SaveAtomic(filePath string, r io.Reader) (int64, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := filePath + ".tmp"
	dst, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	n, err := io.Copy(dst, r)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, filePath); err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to rename file: %w", err)
	}

	return n, nil
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GetFilePath expands inputs into file paths. Directories are walked for files with fileExt.
func GetFilePath(inputs []string, fileExt string) ([]string, error) {
	var paths []string

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, input)
			continue
		}

		err = filepath.Walk(input, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && strings.EqualFold(filepath.Ext(path), fileExt) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return paths, nil
}
