package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists a document and its settings as two plain files.
type Store struct {
	Path         string
	SettingsPath string

	// Backup keeps the previous task file as <path>.bak on every save.
	Backup bool
}

// Load reads the task file. A missing file is an empty document.
func (s Store) Load() (*Document, DecodeReport, error) {
	if strings.TrimSpace(s.Path) == "" {
		return nil, DecodeReport{}, errors.New("missing tasks file path")
	}
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDocument(), DecodeReport{}, nil
		}
		return nil, DecodeReport{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Save writes the task file atomically (temp file + rename).
func (s Store) Save(doc *Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if s.Backup {
		if _, err := os.Stat(s.Path); err == nil {
			if err := CopyFile(s.Path, s.Path+".bak"); err != nil {
				return fmt.Errorf("backup tasks: %w", err)
			}
		}
	}
	return writeFileAtomic(s.Path, buf.Bytes())
}

// LoadSettings reads the settings file; a missing file yields defaults.
func (s Store) LoadSettings() (Settings, error) {
	if strings.TrimSpace(s.SettingsPath) == "" {
		return DefaultSettings(), nil
	}
	f, err := os.Open(s.SettingsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return DefaultSettings(), err
	}
	defer f.Close()
	return ParseSettings(f)
}

func (s Store) SaveSettings(st Settings) error {
	if strings.TrimSpace(s.SettingsPath) == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := WriteSettings(&buf, st); err != nil {
		return err
	}
	return writeFileAtomic(s.SettingsPath, buf.Bytes())
}

// ModTime returns the task file's modification time (zero if missing).
func (s Store) ModTime() int64 {
	st, err := os.Stat(s.Path)
	if err != nil {
		return 0
	}
	return st.ModTime().UnixNano()
}

func writeFileAtomic(path string, b []byte) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("missing file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
