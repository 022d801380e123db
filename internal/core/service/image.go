package service

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/paghive/paghive/internal/core/domain"
)

// decodeDataURL decodes data:<mime>;base64,<payload> and checks that the
// content sniffs as an image. The declared mime type is ignored.
func decodeDataURL(s string) (domain.ImagePayload, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return domain.ImagePayload{}, domain.ErrInvalidImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return domain.ImagePayload{}, domain.ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some pickers strip padding
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return domain.ImagePayload{}, domain.ErrInvalidImage
		}
	}
	if len(data) == 0 {
		return domain.ImagePayload{}, domain.ErrInvalidImage
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return domain.ImagePayload{}, domain.ErrInvalidImage
	}
	return domain.ImagePayload{ContentType: mt.String(), Data: data}, nil
}
