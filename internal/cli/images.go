package cli

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/modelcreator/internal/archive"
	"github.com/dmitrijs2005/modelcreator/internal/common"
	"golang.org/x/sync/errgroup"
)

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

const maxParallelReads = 4

// loadImages reads every source concurrently and returns the images in
// the order the sources were given. A source is a file path or a data URL.
func loadImages(ctx context.Context, sources []string) ([]archive.Image, error) {
	images := make([]archive.Image, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := loadImage(src)
			if err != nil {
				return fmt.Errorf("%s: %w", src, err)
			}
			images[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func loadImage(src string) (archive.Image, error) {
	if strings.HasPrefix(src, "data:") {
		img, err := archive.ParseDataURL(src)
		if err != nil {
			return archive.Image{}, err
		}
		return img, checkImageType(img.MediaType)
	}

	data, err := readFile(src)
	if err != nil {
		return archive.Image{}, err
	}

	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(src)))
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	if err := checkImageType(mediaType); err != nil {
		return archive.Image{}, err
	}

	return archive.Image{Data: data, MediaType: mediaType}, nil
}

func checkImageType(mediaType string) error {
	if !strings.HasPrefix(mediaType, "image/") {
		return fmt.Errorf("%w: %q is not an image", common.ErrValidation, mediaType)
	}
	return nil
}
