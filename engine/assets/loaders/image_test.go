package loaders

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeMemoryRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 128})

	codec := NewImageCodec()
	img, err := codec.DecodeMemory(encodePNG(t, src))
	if err != nil {
		t.Fatal(err)
	}

	if img.Width != 2 || img.Height != 1 || img.ChannelCount != 4 {
		t.Fatalf("got %dx%d/%d channels", img.Width, img.Height, img.ChannelCount)
	}
	if !img.Owned {
		t.Error("decoded buffers must be owned")
	}
	want := []uint8{10, 20, 30, 255, 40, 50, 60, 128}
	if !bytes.Equal(img.Pixels, want) {
		t.Errorf("got %v, want %v", img.Pixels, want)
	}
}

func TestDecodeMemoryGrayscale(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.SetGray(0, 0, color.Gray{Y: 0})
	src.SetGray(1, 0, color.Gray{Y: 85})
	src.SetGray(0, 1, color.Gray{Y: 170})
	src.SetGray(1, 1, color.Gray{Y: 255})

	codec := NewImageCodec()
	img, err := codec.DecodeMemory(encodePNG(t, src))
	if err != nil {
		t.Fatal(err)
	}

	if img.ChannelCount != 1 {
		t.Fatalf("grayscale must stay single-channel, got %d", img.ChannelCount)
	}
	want := []uint8{0, 85, 170, 255}
	if !bytes.Equal(img.Pixels, want) {
		t.Errorf("got %v, want %v", img.Pixels, want)
	}
}

func TestDecodeFile(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	path := filepath.Join(t.TempDir(), "pixel.png")
	if err := os.WriteFile(path, encodePNG(t, src), 0o644); err != nil {
		t.Fatal(err)
	}

	codec := NewImageCodec()
	img, err := codec.DecodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(img.Pixels, []uint8{1, 2, 3, 255}) {
		t.Errorf("got %v", img.Pixels)
	}
}

func TestDecodeFileMissing(t *testing.T) {
	codec := NewImageCodec()
	if _, err := codec.DecodeFile(filepath.Join(t.TempDir(), "absent.png")); err == nil {
		t.Fatal("missing file must fail")
	}
}

func TestDecodeMemoryGarbage(t *testing.T) {
	codec := NewImageCodec()
	if _, err := codec.DecodeMemory([]byte("not an image")); err == nil {
		t.Fatal("undecodable bytes must fail")
	}
}
