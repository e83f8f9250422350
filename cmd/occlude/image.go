package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// loadNRGBA decodes an image file into non-premultiplied RGBA8, the pixel
// layout the guest operates on.
func loadNRGBA(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba, nil
	}
	out := image.NewNRGBA(img.Bounds())
	xdraw.Draw(out, out.Rect, img, img.Bounds().Min, xdraw.Src)
	return out, nil
}

// scaleTo resizes img to bounds unless it already matches.
func scaleTo(img *image.NRGBA, bounds image.Rectangle) *image.NRGBA {
	if img.Bounds().Dx() == bounds.Dx() && img.Bounds().Dy() == bounds.Dy() {
		return img
	}
	out := image.NewNRGBA(bounds)
	xdraw.ApproxBiLinear.Scale(out, bounds, img, img.Bounds(), xdraw.Src, nil)
	return out
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
