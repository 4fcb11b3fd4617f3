package sift

import "testing"

func TestCalculateUniformImageYieldsNoKeypoints(t *testing.T) {
	img := uniformImage(64, 64, 128)
	points, err := Calculate(img, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("a uniform image has no scale-space structure, expected 0 keypoints, got %d", len(points))
	}
}

func TestCalculateSingleBrightDotYieldsKeypoint(t *testing.T) {
	img := uniformImage(64, 64, 0)
	img.Set(32, 32, 255)

	points, err := Calculate(img, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Scenario 2: exactly one interest point at (32, 32) in octave 0
	// (after caller-side scaling), descriptor dominated by the central
	// sub-region.
	if len(points) != 1 {
		t.Fatalf("expected exactly one keypoint for a single bright dot, got %d", len(points))
	}
	p := points[0]
	if p.LocX != 32 || p.LocY != 32 {
		t.Fatalf("expected the keypoint at (32, 32), got (%d, %d)", p.LocX, p.LocY)
	}
	if p.Octave != 0 {
		t.Fatalf("expected the keypoint in octave 0, got %d", p.Octave)
	}
	if len(p.Descriptor) != 128 {
		t.Fatalf("expected the keypoint to carry a 128-value descriptor, got %d", len(p.Descriptor))
	}
}

func TestCalculateSubpixelReportsCoordinatesInInputFrame(t *testing.T) {
	img := uniformImage(64, 64, 0)
	img.Set(32, 32, 255)

	cfg := DefaultConfig()
	cfg.Subpixel = true
	points, err := Calculate(img, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// With Subpixel on, the image is internally doubled before pyramid
	// construction but output coordinates are divided back by d=2, so
	// reported locations should stay in the caller's original frame.
	for _, p := range points {
		if p.LocX < 0 || p.LocX > 64 || p.LocY < 0 || p.LocY > 64 {
			t.Fatalf("expected reported coordinates within the original 64x64 frame, got (%d,%d)", p.LocX, p.LocY)
		}
	}
}

func TestCalculateRejectsUndersizedImageForOctaveCount(t *testing.T) {
	img := uniformImage(16, 16, 128)
	cfg := DefaultConfig()
	cfg.Octaves = 4

	_, err := Calculate(img, cfg)
	if err == nil {
		t.Fatal("expected a ShapeError for a 16x16 image with 4 octaves")
	}
	if _, ok := err.(*ShapeError); !ok {
		t.Fatalf("expected *ShapeError, got %T: %v", err, err)
	}
}

func TestCalculateRejectsTooFewDoGsPerOctave(t *testing.T) {
	img := uniformImage(64, 64, 128)
	cfg := DefaultConfig()
	cfg.DoGsPerOctave = 2

	_, err := Calculate(img, cfg)
	if err == nil {
		t.Fatal("expected a ConfigError for DoGsPerOctave < 3")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
}

func TestCalculateOutputIsDeterministicallyOrdered(t *testing.T) {
	img := uniformImage(96, 96, 0)
	// A handful of bright dots to produce multiple candidates across
	// octaves and indices.
	img.Set(20, 20, 255)
	img.Set(60, 70, 220)
	img.Set(80, 30, 200)

	points, err := Calculate(img, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if a.Octave > b.Octave {
			t.Fatalf("points not sorted by octave at index %d: %+v then %+v", i, a, b)
		}
		if a.Octave == b.Octave && a.Index > b.Index {
			t.Fatalf("points not sorted by index within octave at index %d: %+v then %+v", i, a, b)
		}
	}
}

func TestCalculateNeverReturnsFilteredPoints(t *testing.T) {
	img := uniformImage(64, 64, 0)
	img.Set(32, 32, 255)

	points, err := Calculate(img, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range points {
		if p.filtered {
			t.Fatal("Calculate must never return a point marked filtered")
		}
	}
}
