package loader

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/pierrec/lz4"
)

// unpackArchive unwraps gzip, zip and lz4 containers, returning the inner
// bytes and the inner filename. Non-archives pass through untouched.
func unpackArchive(data []byte, filename string) ([]byte, string, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return unpackZip(data, filename)
	case strings.HasSuffix(lower, ".gz"):
		return unpackGzip(data, filename)
	case strings.HasSuffix(lower, ".lz4"):
		return unpackLZ4(data, filename)
	}
	return data, filename, nil
}

// unpackZip extracts the largest file in the archive, same as a user zipping
// one big CSV with some readme alongside.
func unpackZip(data []byte, filename string) ([]byte, string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	var largest *zip.File
	var largestSize uint64
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if f.UncompressedSize64 > largestSize {
			largest = f
			largestSize = f.UncompressedSize64
		}
	}
	if largest == nil {
		return nil, "", fmt.Errorf("%w: archive has no files", ErrEmptyFile)
	}

	rc, err := largest.Open()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	defer rc.Close()
	inner, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	return inner, largest.Name, nil
}

func unpackGzip(data []byte, filename string) ([]byte, string, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	defer gr.Close()
	inner, err := io.ReadAll(gr)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	return inner, strings.TrimSuffix(filename, ".gz"), nil
}

func unpackLZ4(data []byte, filename string) ([]byte, string, error) {
	inner, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	return inner, strings.TrimSuffix(filename, ".lz4"), nil
}
