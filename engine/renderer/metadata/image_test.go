package metadata

import (
	"bytes"
	"testing"
)

func TestImageValid(t *testing.T) {
	var nilImg *Image
	if nilImg.Valid() {
		t.Error("nil image must not be valid")
	}
	empty := &Image{Width: 2, Height: 2, ChannelCount: 4}
	if empty.Valid() {
		t.Error("image without pixels must not be valid")
	}
	img := &Image{Width: 1, Height: 1, ChannelCount: 1, Pixels: []uint8{7}}
	if !img.Valid() {
		t.Error("expected a valid image")
	}
}

func TestImageRelease(t *testing.T) {
	owned := &Image{Width: 1, Height: 1, ChannelCount: 1, Pixels: []uint8{1}, Owned: true}
	owned.Release()
	if owned.Pixels != nil {
		t.Error("owned pixels must be dropped")
	}

	borrowed := &Image{Width: 1, Height: 1, ChannelCount: 1, Pixels: []uint8{1}, Owned: false}
	borrowed.Release()
	if borrowed.Pixels == nil {
		t.Error("borrowed pixels must survive Release")
	}
}

func TestImageColorInvert(t *testing.T) {
	gray := &Image{Width: 2, Height: 1, ChannelCount: 1, Pixels: []uint8{0, 200}}
	gray.ColorInvert()
	if !bytes.Equal(gray.Pixels, []uint8{255, 55}) {
		t.Errorf("got %v", gray.Pixels)
	}

	rgba := &Image{Width: 1, Height: 1, ChannelCount: 4, Pixels: []uint8{10, 20, 30, 40}}
	rgba.ColorInvert()
	if !bytes.Equal(rgba.Pixels, []uint8{245, 235, 225, 40}) {
		t.Errorf("alpha must not be inverted, got %v", rgba.Pixels)
	}
}

func TestImageClone(t *testing.T) {
	src := &Image{Width: 1, Height: 1, ChannelCount: 2, Pixels: []uint8{1, 2}, Owned: false}
	clone := src.Clone()
	if !clone.Owned {
		t.Error("clones are always owned")
	}
	clone.Pixels[0] = 99
	if src.Pixels[0] != 1 {
		t.Error("clone must not share the pixel buffer")
	}
}

func TestComposeRGBFillsMissingChannels(t *testing.T) {
	occ := &Image{Width: 1, Height: 1, ChannelCount: 1, Pixels: []uint8{100}, Owned: true}
	out := ComposeRGB([3]*Image{occ, nil, nil}, [3]uint8{0, 255, 128})
	if out == nil {
		t.Fatal("expected a composed image")
	}
	if !bytes.Equal(out.Pixels, []uint8{100, 255, 128}) {
		t.Errorf("got %v", out.Pixels)
	}
	if out.ChannelCount != 3 || !out.Owned {
		t.Errorf("composed image must be an owned 3-channel buffer: %+v", out)
	}
}

func TestComposeRGBAllAbsent(t *testing.T) {
	if out := ComposeRGB([3]*Image{}, [3]uint8{1, 2, 3}); out != nil {
		t.Error("no usable source must return nil")
	}
}

func TestComposeRGBTakesLargestDimensions(t *testing.T) {
	small := &Image{Width: 1, Height: 1, ChannelCount: 1, Pixels: []uint8{50}, Owned: true}
	large := &Image{Width: 2, Height: 2, ChannelCount: 1, Pixels: []uint8{1, 2, 3, 4}, Owned: true}
	out := ComposeRGB([3]*Image{small, large, nil}, [3]uint8{0, 0, 9})
	if out.Width != 2 || out.Height != 2 {
		t.Fatalf("got %dx%d, want 2x2", out.Width, out.Height)
	}
	// The 1x1 source point-samples its single texel everywhere.
	for i := 0; i < 4; i++ {
		if out.Pixels[3*i] != 50 {
			t.Errorf("texel %d channel 0 = %d, want 50", i, out.Pixels[3*i])
		}
		if out.Pixels[3*i+2] != 9 {
			t.Errorf("texel %d channel 2 = %d, want fill 9", i, out.Pixels[3*i+2])
		}
	}
	if out.Pixels[1] != 1 || out.Pixels[3*3+1] != 4 {
		t.Errorf("large source must map texel for texel, got %v", out.Pixels)
	}
}

func TestComposeRGBChannelSelection(t *testing.T) {
	// A packed RGBA source: each output channel reads its own channel index.
	packed := &Image{Width: 1, Height: 1, ChannelCount: 4, Pixels: []uint8{11, 22, 33, 44}, Owned: true}
	out := ComposeRGB([3]*Image{packed, packed, packed}, [3]uint8{})
	if !bytes.Equal(out.Pixels, []uint8{11, 22, 33}) {
		t.Errorf("got %v, want [11 22 33]", out.Pixels)
	}
}

func TestComposeRGBGrayscaleExpands(t *testing.T) {
	gray := &Image{Width: 1, Height: 1, ChannelCount: 1, Pixels: []uint8{77}, Owned: true}
	out := ComposeRGB([3]*Image{gray, gray, gray}, [3]uint8{})
	if !bytes.Equal(out.Pixels, []uint8{77, 77, 77}) {
		t.Errorf("grayscale must feed every channel, got %v", out.Pixels)
	}
}
