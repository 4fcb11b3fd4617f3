package imageio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/siftgo/internal/sift"
)

func writeTestPNG(t *testing.T, path string, w, h int, fill color.Gray) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, fill)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test PNG: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode test PNG: %v", err)
	}
}

func TestLoadDecodesGrayscaleSamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.png")
	writeTestPNG(t, path, 12, 8, color.Gray{Y: 200})

	img, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Width != 12 || img.Height != 8 {
		t.Fatalf("expected 12x8, got %dx%d", img.Width, img.Height)
	}
	if got := img.At(5, 5); got != 200 {
		t.Fatalf("expected sample value 200, got %v", got)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.png"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestSaveKeypointOverlayWritesReadableFile(t *testing.T) {
	dir := t.TempDir()
	base := sift.NewImage(32, 32)
	points := []sift.InterestPoint{{LocX: 16, LocY: 16}}

	out := filepath.Join(dir, "overlay.png")
	if err := SaveKeypointOverlay(out, base, points); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("expected overlay file to exist: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("expected a valid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 32 || decoded.Bounds().Dy() != 32 {
		t.Fatalf("expected 32x32 overlay, got %v", decoded.Bounds())
	}
}

func TestSaveDoGDebugWritesOneFilePerLevel(t *testing.T) {
	dir := t.TempDir()
	pyr := &sift.Pyramid{
		DoG: [][]sift.Level{
			{{Scale: 1, Image: sift.NewImage(8, 8)}, {Scale: 1.2, Image: sift.NewImage(8, 8)}},
		},
	}
	if err := SaveDoGDebug(dir, pyr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"dog_o0_i0.png", "dog_o0_i1.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
	}
}
