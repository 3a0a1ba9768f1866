package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"nestdo/internal/store"
)

type WriteOptions struct {
	RenderOptions
	Overwrite bool
}

type WriteResult struct {
	Written string `json:"written"`
	Bytes   int    `json:"bytes"`
}

// WriteMarkdown renders doc and writes it to path.
func WriteMarkdown(doc *store.Document, path string, opt WriteOptions) (WriteResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return WriteResult{}, errors.New("missing output path")
	}
	md, err := RenderMarkdown(doc, opt.RenderOptions)
	if err != nil {
		return WriteResult{}, err
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return WriteResult{}, err
	}
	if err := writeFile(path, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: path, Bytes: len(md)}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
