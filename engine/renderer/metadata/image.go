package metadata

import "github.com/spaghettifunk/ember/engine/math"

/**
 * @brief A CPU-side pixel buffer. Pixels are tightly packed 8-bit channels,
 * row major.
 */
type Image struct {
	Width        int
	Height       int
	ChannelCount int
	Pixels       []uint8
	// Owned is true when the buffer was allocated by the engine and must be
	// released after upload. Buffers aliasing externally owned memory (e.g.
	// an uncompressed blob embedded in an imported scene) are not owned.
	Owned bool
}

// Valid reports whether the image holds pixel data.
func (img *Image) Valid() bool {
	return img != nil && len(img.Pixels) > 0 && img.Width > 0 && img.Height > 0
}

// Release drops the pixel buffer if this image owns it.
func (img *Image) Release() {
	if img != nil && img.Owned {
		img.Pixels = nil
	}
}

// ColorInvert replaces every colour sample with 255-sample, in place. The
// alpha channel of 2- and 4-channel images is left untouched.
func (img *Image) ColorInvert() {
	if !img.Valid() {
		return
	}
	colorChannels := img.ChannelCount
	if img.ChannelCount == 2 || img.ChannelCount == 4 {
		colorChannels = img.ChannelCount - 1
	}
	for i := 0; i < len(img.Pixels); i += img.ChannelCount {
		for c := 0; c < colorChannels; c++ {
			img.Pixels[i+c] = 255 - img.Pixels[i+c]
		}
	}
}

// Clone returns an owned deep copy of the image.
func (img *Image) Clone() *Image {
	out := &Image{
		Width:        img.Width,
		Height:       img.Height,
		ChannelCount: img.ChannelCount,
		Pixels:       make([]uint8, len(img.Pixels)),
		Owned:        true,
	}
	copy(out.Pixels, img.Pixels)
	return out
}

// sampleChannel reads channel c of pixel (x, y), expanding grayscale sources
// to all colour channels.
func (img *Image) sampleChannel(x, y, c int) uint8 {
	ch := c
	if img.ChannelCount < 3 {
		ch = 0
	}
	return img.Pixels[(y*img.Width+x)*img.ChannelCount+ch]
}

// ComposeRGB packs up to three sources into one 3-channel image: channel 0
// comes from sources[0], channel 1 from sources[1], channel 2 from
// sources[2]. The output spans the largest source dimensions; smaller sources
// are point-sampled up. Channels with a nil source are filled with the
// matching component of fill. Returns nil when no source is usable.
func ComposeRGB(sources [3]*Image, fill [3]uint8) *Image {
	w, h := 0, 0
	for _, src := range sources {
		if src.Valid() {
			w = math.Max(w, src.Width)
			h = math.Max(h, src.Height)
		}
	}
	if w == 0 || h == 0 {
		return nil
	}

	// 16.16 fixed-point scales, one per source.
	var scaleX, scaleY [3]int
	for i, src := range sources {
		if src.Valid() {
			scaleX[i] = (src.Width << 16) / w
			scaleY[i] = (src.Height << 16) / h
		}
	}

	out := &Image{
		Width:        w,
		Height:       h,
		ChannelCount: 3,
		Pixels:       make([]uint8, 3*w*h),
		Owned:        true,
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			offset := 3 * (y*w + x)
			for c := 0; c < 3; c++ {
				src := sources[c]
				if !src.Valid() {
					out.Pixels[offset+c] = fill[c]
					continue
				}
				srcX := math.Min((x*scaleX[c])>>16, src.Width-1)
				srcY := math.Min((y*scaleY[c])>>16, src.Height-1)
				out.Pixels[offset+c] = src.sampleChannel(srcX, srcY, c)
			}
		}
	}

	return out
}
