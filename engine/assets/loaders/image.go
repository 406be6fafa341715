package loaders

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

// ImageCodec decodes texture files and in-memory blobs into tightly packed
// pixel buffers. All formats registered with image.Decode are accepted; PNG,
// JPEG, BMP and TIFF are registered here.
//
// Stateless and safe for concurrent use from multiple decode workers.
type ImageCodec struct{}

func NewImageCodec() *ImageCodec { return &ImageCodec{} }

func (c *ImageCodec) DecodeFile(path string) (*metadata.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := c.decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding '%s': %w", path, err)
	}
	return img, nil
}

func (c *ImageCodec) DecodeMemory(data []byte) (*metadata.Image, error) {
	return c.decode(bytes.NewReader(data))
}

func (c *ImageCodec) decode(r io.Reader) (*metadata.Image, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return flatten(src), nil
}

// flatten converts any decoded image to a packed buffer: grayscale images
// stay single-channel, everything else becomes RGBA8.
func flatten(src image.Image) *metadata.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if gray, ok := src.(*image.Gray); ok {
		pixels := make([]uint8, w*h)
		for y := 0; y < h; y++ {
			copy(pixels[y*w:(y+1)*w], gray.Pix[y*gray.Stride:y*gray.Stride+w])
		}
		return &metadata.Image{
			Width:        w,
			Height:       h,
			ChannelCount: 1,
			Pixels:       pixels,
			Owned:        true,
		}
	}

	nrgba, ok := src.(*image.NRGBA)
	if !ok || !bounds.Min.Eq(image.Point{}) {
		converted := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				converted.Set(x, y, src.At(bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
		nrgba = converted
	}

	pixels := make([]uint8, w*h*4)
	rowLen := w * 4
	for y := 0; y < h; y++ {
		copy(pixels[y*rowLen:(y+1)*rowLen], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+rowLen])
	}
	return &metadata.Image{
		Width:        w,
		Height:       h,
		ChannelCount: 4,
		Pixels:       pixels,
		Owned:        true,
	}
}
