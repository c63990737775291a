package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/disintegration/imaging"

	"github.com/kdpath/tracer/internal/geom"
)

// ToneMapImage tone-maps the linear pixel grid with the Reinhard operator,
// gamma-encodes it to sRGB, and optionally downsamples it with Lanczos
// resampling, producing the LDR preview both WritePreviewPNG and the
// render fingerprint are computed from.
func ToneMapImage(width, height int, pixels []geom.Vec3, maxWidth int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := pixels[y*width+x]
			img.Set(x, y, color.RGBA{
				R: toSRGB8(reinhard(c.X)),
				G: toSRGB8(reinhard(c.Y)),
				B: toSRGB8(reinhard(c.Z)),
				A: 255,
			})
		}
	}

	if maxWidth > 0 && width > maxWidth {
		return imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	return img
}

// WritePreviewPNG writes the tone-mapped preview of the linear pixel grid
// as an 8-bit PNG to path. A render's EXR output has no built-in viewer on
// most machines; this preview does.
func WritePreviewPNG(path string, width, height int, pixels []geom.Vec3, maxWidth int) error {
	out := ToneMapImage(width, height, pixels, maxWidth)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: create %q: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, out); err != nil {
		return fmt.Errorf("imageio: encode preview %q: %w", path, err)
	}
	return nil
}

// reinhard maps an unbounded linear radiance value into [0, 1] via the
// simple Reinhard operator v / (1 + v), the same family of tone curve the
// original renderer's preview window used to keep bright pixels from
// clipping outright.
func reinhard(v float32) float32 {
	if v < 0 {
		return 0
	}
	return v / (1 + v)
}

// toSRGB8 gamma-encodes a linear [0,1] value into an 8-bit sRGB channel.
func toSRGB8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	encoded := float32(math.Pow(float64(v), 1/2.2))
	return uint8(encoded*255 + 0.5)
}
