// Package imageio bridges the filesystem and the sift core's float32 image
// buffers: decoding input files for detection, and encoding optional debug
// artifacts (the DoG pyramid and a keypoint overlay) for inspection.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	_ "image/gif"  // register decoder for image.Decode
	_ "image/jpeg" // register decoder for image.Decode

	"github.com/cwbudde/siftgo/internal/sift"
)

// Load decodes an image file (PNG, JPEG, GIF) and converts it to a
// single-channel float32 buffer via the standard library's grayscale
// conversion, mirroring the teacher's image.Decode + channel-conversion
// pattern in cmd/run.go (there converting to NRGBA, here to gray).
func Load(path string) (*sift.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: failed to open %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imageio: failed to decode %s: %w", path, err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := sift.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray := color.GrayModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			out.Set(x, y, float32(gray.Y))
		}
	}
	return out, nil
}

// grayscaleToNRGBA renders a sift.Image back into a standard library image
// for encoding, clamping samples into [0,255].
func grayscaleToNRGBA(img *sift.Image) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := img.At(x, y)
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			g := uint8(v)
			out.SetNRGBA(x, y, color.NRGBA{R: g, G: g, B: g, A: 255})
		}
	}
	return out
}

func savePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("imageio: failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("imageio: failed to encode %s: %w", path, err)
	}
	return nil
}

// SaveDoGDebug writes every DoG level of every octave of the given pyramid
// as a PNG under dir, named dog_o<octave>_i<index>.png, for visual
// inspection of the scale-space structure (spec §6 "Debug artifacts").
func SaveDoGDebug(dir string, pyr *sift.Pyramid) error {
	for o, levels := range pyr.DoG {
		for i, lvl := range levels {
			path := filepath.Join(dir, fmt.Sprintf("dog_o%d_i%d.png", o, i))
			if err := savePNG(path, grayscaleToNRGBA(lvl.Image)); err != nil {
				return err
			}
		}
	}
	return nil
}

// SaveKeypointOverlay draws a small cross at each keypoint location over a
// copy of the original image and writes it as a PNG at path (spec §6
// "Debug artifacts").
func SaveKeypointOverlay(path string, base *sift.Image, points []sift.InterestPoint) error {
	canvas := grayscaleToNRGBA(base)
	mark := color.NRGBA{R: 255, G: 0, B: 0, A: 255}

	for _, p := range points {
		drawCross(canvas, p.LocX, p.LocY, mark)
	}
	return savePNG(path, canvas)
}

func drawCross(canvas *image.NRGBA, cx, cy int, c color.NRGBA) {
	const arm = 3
	bounds := canvas.Bounds()
	for d := -arm; d <= arm; d++ {
		setIfInBounds(canvas, bounds, cx+d, cy, c)
		setIfInBounds(canvas, bounds, cx, cy+d, c)
	}
}

func setIfInBounds(canvas *image.NRGBA, bounds image.Rectangle, x, y int, c color.NRGBA) {
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	canvas.SetNRGBA(x, y, c)
}
