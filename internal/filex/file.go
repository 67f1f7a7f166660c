// Package filex prepares local files for upload.
package filex

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// LocalFile is an opened regular file together with what the drive needs
// to know about it.
type LocalFile struct {
	*os.File
	Name string
	Size int64
	Kind string
}

// Open opens path for upload. Kind comes from the extension and falls back
// to sniffing the first 512 bytes.
func Open(path string) (*LocalFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	kind := mime.TypeByExtension(filepath.Ext(path))
	if kind == "" {
		kind, err = sniff(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	return &LocalFile{File: f, Name: filepath.Base(path), Size: fi.Size(), Kind: kind}, nil
}

func sniff(f *os.File) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}
