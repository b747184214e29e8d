// Package storage keeps uploads and their compressed copies in per-request
// workspaces named by a random token.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"compress-pdf/util"

	"github.com/google/uuid"
)

const (
	CompressedPrefix = "compressed_"
	defaultFilename  = "upload.pdf"
)

var ErrInvalidToken = errors.New("invalid workspace token")

type Storage struct {
	root string
}

func New(root string) (*Storage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Storage{root: root}, nil
}

func (s *Storage) Root() string {
	return s.root
}

// Workspace is the directory of a single upload.
type Workspace struct {
	Token string
	dir   string
}

// NewWorkspace creates an empty workspace with a fresh token.
func (s *Storage) NewWorkspace() (*Workspace, error) {
	token := uuid.NewString()
	dir := filepath.Join(s.root, token)
	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{Token: token, dir: dir}, nil
}

// Open returns the workspace of an existing token. The token must be a UUID in
// its canonical form so that it can never name another directory.
func (s *Storage) Open(token string) (*Workspace, error) {
	id, err := uuid.Parse(token)
	if err != nil || id.String() != token {
		return nil, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	dir := filepath.Join(s.root, token)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a directory", ErrInvalidToken, token)
	}
	return &Workspace{Token: token, dir: dir}, nil
}

func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins the sanitised filename to the workspace directory.
func (w *Workspace) Path(filename string) string {
	return filepath.Join(w.dir, SanitizeFilename(filename))
}

// Save writes r to the sanitised filename and returns the stored path and size.
func (w *Workspace) Save(filename string, r io.Reader) (string, int64, error) {
	path := w.Path(filename)
	n, err := util.SaveAtomic(path, r)
	if err != nil {
		return "", 0, err
	}
	return path, n, nil
}

func (w *Workspace) Remove() error {
	return os.RemoveAll(w.dir)
}

// SanitizeFilename replaces spaces with underscores and drops any directory part.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.ReplaceAll(name, " ", "_"))
	switch name {
	case "", ".", "..", "/":
		return defaultFilename
	}
	return name
}

// CompressedName is the stored name of the compressed copy of filename.
func CompressedName(filename string) string {
	return CompressedPrefix + SanitizeFilename(filename)
}
