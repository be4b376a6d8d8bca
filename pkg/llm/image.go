package llm

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
)

// EncodeImageJPEG encodes an image to JPEG bytes for message attachment.
func EncodeImageJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// dataURL builds a base64 data URL from raw image bytes.
// The MIME subtype is sniffed from the magic bytes; JPEG is assumed
// otherwise since that is what the camera produces.
func dataURL(data []byte) string {
	mime := "image/jpeg"
	if len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}) {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
