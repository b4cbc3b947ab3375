package vision

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/codexvision/focusd/internal/ports"
)

// NormalizeDataURL ensures the image payload is a data URL. Browsers
// send canvas.toDataURL output, but bare base64 JPEG is accepted too.
func NormalizeDataURL(image string) string {
	if strings.HasPrefix(image, "data:") {
		return image
	}
	return "data:image/jpeg;base64," + image
}

// DecodeDataURL splits a data URL into raw bytes and a media type, for
// backends that take image bytes instead of URLs. Bare base64 input is
// assumed to be JPEG.
func DecodeDataURL(image string) (data []byte, mediaType string, err error) {
	mediaType = "image/jpeg"
	payload := image

	if strings.HasPrefix(image, "data:") {
		header, rest, ok := strings.Cut(image, ",")
		if !ok {
			return nil, "", fmt.Errorf("%w: missing data URL payload", ports.ErrInvalidImage)
		}
		payload = rest
		header = strings.TrimPrefix(header, "data:")
		if mt, _, found := strings.Cut(header, ";"); found && mt != "" {
			mediaType = mt
		} else if !found && header != "" {
			mediaType = header
		}
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ports.ErrInvalidImage, err)
	}
	return data, mediaType, nil
}

func bytesToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
