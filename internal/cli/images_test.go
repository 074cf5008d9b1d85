package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/modelcreator/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestLoadImages_PreservesOrder(t *testing.T) {
	sources := []string{
		writeFile(t, "one.png", []byte("first")),
		writeFile(t, "two.JPG", []byte("second")),
		writeFile(t, "three", pngHeader),
		"data:image/webp;base64," + base64.StdEncoding.EncodeToString([]byte("fourth")),
	}

	images, err := loadImages(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, images, 4)

	assert.Equal(t, "image/png", images[0].MediaType)
	assert.Equal(t, []byte("first"), images[0].Data)
	assert.Equal(t, "image/jpeg", images[1].MediaType)
	assert.Equal(t, []byte("second"), images[1].Data)
	assert.Equal(t, "image/png", images[2].MediaType, "sniffed from content")
	assert.Equal(t, "image/webp", images[3].MediaType)
	assert.True(t, images[3].Base64)
}

func TestLoadImages_DataURLFromInputLine(t *testing.T) {
	file := writeFile(t, "face.png", []byte("img"))
	line := "data:image/png;base64,iVBORw0KGgo= " + file

	images, err := loadImages(context.Background(), splitSources(line))
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "image/png", images[0].MediaType)
	assert.True(t, images[0].Base64)
	assert.Equal(t, []byte("iVBORw0KGgo="), images[0].Data)
	assert.Equal(t, []byte("img"), images[1].Data)
}

func TestLoadImages_MissingFile(t *testing.T) {
	_, err := loadImages(context.Background(), []string{filepath.Join(t.TempDir(), "nope.png")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadImages_NotAnImage(t *testing.T) {
	_, err := loadImages(context.Background(), []string{writeFile(t, "notes.txt", []byte("hello"))})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = loadImages(context.Background(), []string{"data:text/plain,hello"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestLoadImages_ReadSeam(t *testing.T) {
	orig := readFile
	t.Cleanup(func() { readFile = orig })
	readFile = func(name string) ([]byte, error) {
		if name == "bad.png" {
			return nil, errors.New("disk error")
		}
		return []byte("ok"), nil
	}

	_, err := loadImages(context.Background(), []string{"good.png", "bad.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.png: disk error")
}

func TestLoadImages_Empty(t *testing.T) {
	images, err := loadImages(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, images)
}
