// Package archive packs training images into a single zip archive.
//
// Entries are named image_<n>.<ext>, where n is the 1-based position of
// the image in the input and ext is the subtype of its media type.
package archive

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/dmitrijs2005/modelcreator/internal/common"
	"github.com/klauspost/compress/zip"
)

const (
	ContentType = "application/zip"
	Extension   = ".zip"
)

// Image is one training image as selected by the user.
type Image struct {
	// Data is the payload. When Base64 is set it holds base64 text and is
	// decoded before it goes into the archive.
	Data      []byte
	MediaType string
	Base64    bool
}

// Entry describes one file read back from an archive.
type Entry struct {
	Name string
	Data []byte
}

// EntryName returns the archive file name for the image at 0-based index i.
func EntryName(i int, mediaType string) (string, error) {
	ext, err := ExtensionFor(mediaType)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("image_%d.%s", i+1, ext), nil
}

// ExtensionFor derives a file extension from the subtype of a media type,
// so "image/png" gives "png". Parameters are ignored.
func ExtensionFor(mediaType string) (string, error) {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return "", fmt.Errorf("%w: media type %q: %v", common.ErrEncoding, mediaType, err)
	}
	_, sub, ok := strings.Cut(mt, "/")
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: media type %q has no subtype", common.ErrEncoding, mediaType)
	}
	return sub, nil
}

// Build writes every image into a new zip archive, in input order, and
// returns the archive bytes. An empty input yields a valid empty archive.
func Build(images []Image) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, img := range images {
		name, err := EntryName(i, img.MediaType)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}

		data, err := img.decode()
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}

		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip close: %w", err)
	}

	return buf.Bytes(), nil
}

func (img Image) decode() ([]byte, error) {
	if !img.Base64 {
		return img.Data, nil
	}

	// Padding is optional in data URLs produced by some encoders.
	text := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, string(img.Data))
	text = strings.TrimRight(text, "=")

	data, err := base64.RawStdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 payload: %v", common.ErrEncoding, err)
	}
	return data, nil
}

// Entries reads an archive back into memory, preserving entry order.
func Entries(archive []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		entries = append(entries, Entry{Name: f.Name, Data: data})
	}
	return entries, nil
}
