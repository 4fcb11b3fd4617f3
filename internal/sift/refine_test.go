package sift

import "testing"

func stackFromImages(imgs [3]*Image) *Pyramid {
	return &Pyramid{
		Octaves: 1,
		S:       3,
		DoG: [][]Level{
			{
				{Scale: 1.0, Image: imgs[0]},
				{Scale: 1.2, Image: imgs[1]},
				{Scale: 1.4, Image: imgs[2]},
			},
		},
	}
}

func TestRefineKeypointsRejectsFlatRegion(t *testing.T) {
	flat := func() *Image { return uniformImage(9, 9, 128) }
	pyr := stackFromImages([3]*Image{flat(), flat(), flat()})

	candidates := []InterestPoint{{LocX: 4, LocY: 4, Octave: 0, Index: 1, Scale: 1.2}}
	out := refineKeypoints(candidates, pyr, DefaultConfig())

	if !out[0].filtered {
		t.Fatal("a flat DoG neighborhood has a singular Hessian and must be rejected")
	}
}

func TestRefineKeypointsEdgeResponseRejection(t *testing.T) {
	// A ridge in the middle scale only: sharply curved in x, gently curved
	// in y -> large Dxx relative to Dyy, pushing tr^2/det past the
	// threshold while the 3x3 Hessian stays solvable.
	ridge := NewImage(9, 9)
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			dx, dy := float32(x-4), float32(y-4)
			ridge.Set(x, y, 168-40*dx*dx-dy*dy)
		}
	}
	flat := uniformImage(9, 9, 128)
	pyr := stackFromImages([3]*Image{flat, ridge, flat})

	candidates := []InterestPoint{{LocX: 4, LocY: 4, Octave: 0, Index: 1, Scale: 1.2}}
	cfg := DefaultConfig()
	out := refineKeypoints(candidates, pyr, cfg)

	if !out[0].filtered {
		t.Fatal("expected the ridge candidate to fail the edge-response test")
	}
}

func TestRefineKeypointsAcceptsBlob(t *testing.T) {
	blob := NewImage(9, 9)
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			dx, dy := float64(x-4), float64(y-4)
			v := 128 + 40*(1-0.2*(dx*dx+dy*dy))
			blob.Set(x, y, float32(v))
		}
	}
	flat := uniformImage(9, 9, 128)
	pyr := stackFromImages([3]*Image{flat, blob, flat})

	candidates := []InterestPoint{{LocX: 4, LocY: 4, Octave: 0, Index: 1, Scale: 1.2}}
	cfg := DefaultConfig()
	cfg.ContrastThreshold = 0
	out := refineKeypoints(candidates, pyr, cfg)

	if out[0].filtered {
		t.Fatal("expected a symmetric blob-like peak to survive refinement")
	}
}
