package sift

import "math"

// stack3 produces the fixed-size view over three adjacent DoG images at
// (o, i-1), (o, i), (o, i+1), as named in spec §9 "Cross-stage indexing".
func stack3(pyr *Pyramid, o, i int) [3]*Image {
	return [3]*Image{
		pyr.DoG[o][i-1].Image,
		pyr.DoG[o][i].Image,
		pyr.DoG[o][i+1].Image,
	}
}

// refineKeypoints performs sub-pixel localization via a quadratic fit and
// marks low-contrast or edge-response candidates as filtered (spec §4.D).
// It never removes entries from the slice; the driver partitions by the
// filtered flag afterward.
func refineKeypoints(candidates []InterestPoint, pyr *Pyramid, cfg Config) []InterestPoint {
	for idx := range candidates {
		p := &candidates[idx]
		stack := stack3(pyr, p.Octave, p.Index)

		h := secondDerivative(stack, p.LocX, p.LocY)
		gx, gy, gs := firstDerivative(stack, p.LocX, p.LocY)

		// Solve (-H) e = g for the sub-pixel offset.
		a := [3][3]float64{
			{-h.Dxx, -h.Dxy, -h.Dxs},
			{-h.Dxy, -h.Dyy, -h.Dys},
			{-h.Dxs, -h.Dys, -h.Dss},
		}
		b := [3]float64{gx, gy, gs}
		e, ok := solve3x3(a, b)
		if !ok {
			p.filtered = true
			continue
		}

		// Low-offset check: reject solves that blew up past the scaled
		// half-pixel bound (spec §4.D.3). In well-behaved cases the
		// offset is dimensionally independent of the [0,255] intensity
		// scale; this bound mainly catches near-singular Hessians that
		// solve3x3 didn't flag as outright singular.
		if math.Abs(e[0]) > 127.5 || math.Abs(e[1]) > 127.5 || math.Abs(e[2]) > 127.5 {
			p.filtered = true
			continue
		}

		// Contrast check: D(e) ~= D(p) + 1/2 g.e. Candidates can be
		// either maxima or minima, so the rejection compares magnitude.
		dAtE := dogRaw(stack[1], p.LocX, p.LocY) + 0.5*(gx*e[0]+gy*e[1]+gs*e[2])
		if math.Abs(dAtE) < cfg.ContrastThreshold {
			p.filtered = true
			continue
		}

		// Edge response check, from the 2D (x,y) sub-block of H.
		tr := h.Dxx + h.Dyy
		det := h.Dxx*h.Dyy - h.Dxy*h.Dxy
		if det < 0 {
			p.filtered = true
			continue
		}
		r := cfg.EdgeThreshold
		if tr*tr/det > (r+1)*(r+1)/r {
			p.filtered = true
			continue
		}
	}
	return candidates
}
