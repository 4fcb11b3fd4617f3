package sift

import "testing"

func TestBuildDescriptorsRejectsNearBorder(t *testing.T) {
	img := rampImage(64, 64)
	pyr := buildSingleLevelPyramid(img, 1.6)
	grad := buildGradientFields(pyr)

	candidates := []InterestPoint{{LocX: 2, LocY: 2, Octave: 0, Index: 1, Scale: 1.6, Orientation: 0}}
	out := buildDescriptors(pyr, grad, candidates, DefaultConfig())

	if !out[0].filtered {
		t.Fatal("candidate within the descriptor radius of the border must be filtered")
	}
}

func TestBuildDescriptorsProducesUnitNormVector(t *testing.T) {
	img := rampImage(64, 64)
	pyr := buildSingleLevelPyramid(img, 1.6)
	grad := buildGradientFields(pyr)

	candidates := []InterestPoint{{LocX: 32, LocY: 32, Octave: 0, Index: 1, Scale: 1.6, Orientation: 0}}
	out := buildDescriptors(pyr, grad, candidates, DefaultConfig())

	if out[0].filtered {
		t.Fatal("candidate at image center should not be filtered")
	}
	if len(out[0].Descriptor) != 128 {
		t.Fatalf("expected a 128-value descriptor, got %d", len(out[0].Descriptor))
	}

	// The normalize/clamp/renormalize pass runs once over the full
	// 128-value descriptor, not per sub-histogram, so it's the whole
	// vector's sum-of-squares that should land in [0.8, 1.0] (spec §8-4),
	// not each of its 16 blocks independently.
	var sumSq float64
	for _, v := range out[0].Descriptor {
		sumSq += v * v
	}
	if sumSq != 0 && (sumSq < 0.8 || sumSq > 1.0) {
		t.Fatalf("expected descriptor sum-of-squares in [0.8, 1.0], got %v", sumSq)
	}
}

func TestBuildDescriptorsClampsLargeBins(t *testing.T) {
	img := rampImage(64, 64)
	pyr := buildSingleLevelPyramid(img, 1.6)
	grad := buildGradientFields(pyr)

	candidates := []InterestPoint{{LocX: 32, LocY: 32, Octave: 0, Index: 1, Scale: 1.6, Orientation: 0}}
	out := buildDescriptors(pyr, grad, candidates, DefaultConfig())

	for _, v := range out[0].Descriptor {
		if v > 0.2+1e-9 {
			t.Fatalf("no descriptor bin should exceed the 0.2 clamp, got %v", v)
		}
	}
}
