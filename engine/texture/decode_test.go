package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

func checkerImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.NRGBA{R: 255, A: 255})
			} else {
				img.Set(x, y, color.NRGBA{B: 255, A: 255})
			}
		}
	}
	return img
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, checkerImage(3, 2)); err != nil {
		t.Fatal(err)
	}
	staging, err := Decode("checker.png", buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if staging.Width != 3 || staging.Height != 2 {
		t.Fatalf("size = %dx%d, want 3x2", staging.Width, staging.Height)
	}
	if !staging.Valid() {
		t.Fatalf("staging data invalid: %d bytes", len(staging.Pixels))
	}
	if got := staging.Pixels[0:4]; !bytes.Equal(got, []byte{255, 0, 0, 255}) {
		t.Errorf("pixel (0,0) = %v, want red", got)
	}
	if got := staging.Pixels[4:8]; !bytes.Equal(got, []byte{0, 0, 255, 255}) {
		t.Errorf("pixel (1,0) = %v, want blue", got)
	}
}

func TestDecodeBMP(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, checkerImage(2, 2)); err != nil {
		t.Fatal(err)
	}
	staging, err := Decode("checker.bmp", buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if staging.Width != 2 || staging.Height != 2 || !staging.Valid() {
		t.Errorf("unexpected staging data %dx%d (%d bytes)", staging.Width, staging.Height, len(staging.Pixels))
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode("broken.png", []byte("definitely not an image")); err == nil {
		t.Errorf("expected error for malformed input")
	}
}

func ddsFile(fourCC string, w, h uint32, payload []byte) []byte {
	header := make([]byte, ddsHeaderSize)
	copy(header, ddsMagic)
	binary.LittleEndian.PutUint32(header[4:], 124)
	binary.LittleEndian.PutUint32(header[12:], h)
	binary.LittleEndian.PutUint32(header[16:], w)
	binary.LittleEndian.PutUint32(header[76:], 32)
	copy(header[84:], fourCC)
	return append(header, payload...)
}

func TestDecodeDDSDXT1(t *testing.T) {
	// One 4x4 block: colour0 pure red (RGB565), colour1 black, every texel index 0.
	block := []byte{0x00, 0xF8, 0x00, 0x00, 0, 0, 0, 0}
	staging, err := Decode("solid.dds", ddsFile("DXT1", 4, 4, block))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if staging.Width != 4 || staging.Height != 4 || len(staging.Pixels) != 64 {
		t.Fatalf("unexpected staging data %dx%d (%d bytes)", staging.Width, staging.Height, len(staging.Pixels))
	}
	first := staging.Pixels[:4]
	for i := 4; i < len(staging.Pixels); i += 4 {
		if !bytes.Equal(staging.Pixels[i:i+4], first) {
			t.Fatalf("texel %d = %v differs from texel 0 = %v", i/4, staging.Pixels[i:i+4], first)
		}
	}
}

func TestDecodeDDSErrors(t *testing.T) {
	if _, err := Decode("bad.dds", []byte("DDS ")); err == nil {
		t.Errorf("expected error for truncated header")
	}
	if _, err := Decode("bc7.dds", ddsFile("BC7 ", 4, 4, make([]byte, 16))); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Decode("short.dds", ddsFile("DXT5", 8, 8, make([]byte, 16))); err == nil {
		t.Errorf("expected error for truncated payload")
	}
}

func TestTextureReleaseIsNilSafe(t *testing.T) {
	var nilTex *Texture
	nilTex.Release()

	depth := &Texture{Label: "depth", Width: 4, Height: 4, Format: DepthFormat}
	depth.Release()
	depth.Release()
	if !depth.IsDepth() {
		t.Errorf("IsDepth() = false for depth format")
	}
}
