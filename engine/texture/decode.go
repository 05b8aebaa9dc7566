package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-instancer/common"
	"github.com/mauserzjeh/dxt"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Common errors returned by the decoder
var (
	ErrUnsupportedFormat = errors.New("unsupported texture format")
	errInvalidDDS        = errors.New("invalid DDS header")
)

const (
	ddsMagic      = "DDS "
	ddsHeaderSize = 128
)

// Decode turns encoded image bytes into RGBA8 staging data ready for upload.
// The name only selects the DDS path (".dds"); every other input is sniffed by image.Decode,
// which understands PNG, JPEG, GIF, BMP, TIFF and WebP.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - name: the asset name, used for format selection and error messages
//   - data: the encoded image bytes
//
// Returns:
//   - common.TextureStagingData: the decoded pixels and dimensions
//   - error: error if the data is malformed or in an unsupported format
func Decode(name string, data []byte) (common.TextureStagingData, error) {
	if strings.EqualFold(filepath.Ext(name), ".dds") {
		staging, err := decodeDDS(data)
		if err != nil {
			return common.TextureStagingData{}, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return staging, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return FromImage(img), nil
}

// FromImage converts any image into tightly packed RGBA8 staging data.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - common.TextureStagingData: the pixels, width and height
func FromImage(img image.Image) common.TextureStagingData {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return common.TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
}

// decodeDDS decodes the top mip level of a DXT1 or DXT5 compressed DDS file.
func decodeDDS(data []byte) (common.TextureStagingData, error) {
	if len(data) < ddsHeaderSize || string(data[:4]) != ddsMagic {
		return common.TextureStagingData{}, errInvalidDDS
	}
	height := binary.LittleEndian.Uint32(data[12:16])
	width := binary.LittleEndian.Uint32(data[16:20])
	fourCC := string(data[84:88])
	if width == 0 || height == 0 {
		return common.TextureStagingData{}, errInvalidDDS
	}

	blocks := int(max(1, (width+3)/4) * max(1, (height+3)/4))
	payload := data[ddsHeaderSize:]

	var (
		pix []byte
		err error
	)
	switch fourCC {
	case "DXT1":
		if len(payload) < blocks*8 {
			return common.TextureStagingData{}, fmt.Errorf("%w: truncated DXT1 payload", errInvalidDDS)
		}
		pix, err = dxt.DecodeDXT1(payload[:blocks*8], uint(width), uint(height))
	case "DXT5":
		if len(payload) < blocks*16 {
			return common.TextureStagingData{}, fmt.Errorf("%w: truncated DXT5 payload", errInvalidDDS)
		}
		pix, err = dxt.DecodeDXT5(payload[:blocks*16], uint(width), uint(height))
	default:
		return common.TextureStagingData{}, fmt.Errorf("%w: DDS fourCC %q", ErrUnsupportedFormat, fourCC)
	}
	if err != nil {
		return common.TextureStagingData{}, err
	}

	want := int(width) * int(height) * 4
	if len(pix) < want {
		return common.TextureStagingData{}, fmt.Errorf("%w: decoded %d bytes, want %d", errInvalidDDS, len(pix), want)
	}
	return common.TextureStagingData{Pixels: pix[:want], Width: width, Height: height}, nil
}
