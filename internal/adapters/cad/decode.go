package cad

import (
	"encoding/base64"
	"unicode/utf16"

	"github.com/fenestra-io/configurator/internal/core"
)

// decodeImagePayload turns the vendor's base64 payload into usable bytes.
// The encoding differs by type: SVG is base64 of UTF-16LE text, PNG and
// glTF are base64 of raw binary.
func decodeImagePayload(imageType core.ImageType, data string) (*core.Image, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, core.ErrProtocol("IMAGE_DECODE_FAILED", "image payload is not valid base64").WithCause(err)
	}

	switch imageType {
	case core.ImageSVG:
		return &core.Image{
			ContentType: "image/svg+xml",
			Data:        []byte(decodeUTF16LE(decoded)),
		}, nil
	case core.ImageGLTF:
		return &core.Image{ContentType: "model/gltf-binary", Data: decoded}, nil
	default:
		return &core.Image{ContentType: "image/png", Data: decoded}, nil
	}
}

// decodeUTF16LE converts little-endian UTF-16 bytes to a UTF-8 string,
// dropping a leading BOM and a trailing odd byte.
func decodeUTF16LE(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])|uint16(b[i+1])<<8)
	}
	if len(units) > 0 && units[0] == 0xFEFF {
		units = units[1:]
	}
	return string(utf16.Decode(units))
}
