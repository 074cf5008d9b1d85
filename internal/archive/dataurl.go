package archive

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/modelcreator/internal/common"
)

// ParseDataURL turns a "data:<media type>[;base64],<payload>" string, the
// form browsers hand out for selected files, into an Image. Base64 payloads
// are kept encoded and flagged; plain payloads are percent-decoded.
func ParseDataURL(s string) (Image, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return Image{}, fmt.Errorf("%w: not a data URL", common.ErrEncoding)
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: data URL without payload", common.ErrEncoding)
	}

	params := strings.Split(header, ";")
	img := Image{MediaType: params[0]}
	for _, p := range params[1:] {
		if strings.EqualFold(p, "base64") {
			img.Base64 = true
		}
	}
	if img.MediaType == "" {
		img.MediaType = "text/plain"
	}

	if img.Base64 {
		img.Data = []byte(payload)
		return img, nil
	}

	raw, err := url.PathUnescape(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: data URL payload: %v", common.ErrEncoding, err)
	}
	img.Data = []byte(raw)
	return img, nil
}
