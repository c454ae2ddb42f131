package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrEmptyFile       = errors.New("empty file")
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported image type")
)

// Store persiste imágenes y devuelve una URL pública estable.
type Store interface {
	Save(ctx context.Context, r io.Reader) (string, error)
}

// LocalStore guarda archivos en disco; el router los sirve bajo URLPrefix.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

const URLPrefix = "/uploads"

func NewLocalStore(dir, publicBaseURL string, maxBytes int64) (*LocalStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("upload dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &LocalStore{
		dir:      dir,
		baseURL:  strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		maxBytes: maxBytes,
	}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

// Save detecta el tipo por contenido, no por el nombre ni el header del cliente.
func (s *LocalStore) Save(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + mt.Extension()
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store upload: %w", err)
	}
	return s.baseURL + URLPrefix + "/" + name, nil
}
