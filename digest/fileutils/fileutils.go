// Package fileutils holds the small file helpers the CLI uses for its output.
package fileutils

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EncodeJSON renders v with a trailing newline.
func EncodeJSON(v any, pretty bool) ([]byte, error) {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return append(b, '\n'), nil
}

// WriteJSON encodes v to w.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	b, err := EncodeJSON(v, pretty)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// WriteJSONFileAtomic encodes v and replaces path with it in one rename.
func WriteJSONFileAtomic(path string, v any, pretty bool) error {
	b, err := EncodeJSON(v, pretty)
	if err != nil {
		return err
	}
	if err := WriteFileAtomicSameDir(path, b, 0o644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// WriteFileAtomicSameDir writes through a temp file in path's directory so readers never see a
// partial file.
func WriteFileAtomicSameDir(path string, data []byte, mode fs.FileMode) error {
	if path == "" {
		return errors.New("WriteFileAtomicSameDir: empty path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_digest_*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
