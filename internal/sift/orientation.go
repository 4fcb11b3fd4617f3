package sift

import "math"

// buildGradientFields computes magnitude/orientation for every Gaussian
// level (spec §4.E "Preparation"). Border pixels are left at zero; a
// window placed exactly DescriptorRadius pixels from the left or top edge
// includes them.
func buildGradientFields(pyr *Pyramid) [][]GradientField {
	fields := make([][]GradientField, pyr.Octaves)
	for o, levels := range pyr.Gauss {
		fields[o] = make([]GradientField, len(levels))
		for j, lvl := range levels {
			img := lvl.Image
			mag := NewImage(img.Width, img.Height)
			ori := NewImage(img.Width, img.Height)
			for y := 1; y < img.Height-1; y++ {
				for x := 1; x < img.Width-1; x++ {
					mag.Set(x, y, float32(gradientMagnitude(img, x, y)))
					ori.Set(x, y, float32(gradientOrientation(img, x, y)))
				}
			}
			fields[o][j] = GradientField{Magnitude: mag, Orientation: ori}
		}
	}
	return fields
}

// gaussianWeightWindow builds a (2R)x(2R) radial weighting mask centered
// on the window by convolving an impulse image with sigma — reusing
// convolveGauss as its own primitive rather than introducing a second
// Gaussian-evaluation routine (spec §4.E.4).
func gaussianWeightWindow(r int, sigma float64) *Image {
	size := 2 * r
	impulse := NewImage(size, size)
	impulse.Set(r, r, 1)
	return convolveGauss(impulse, sigma)
}

// histogramPeaks extracts dominant orientations from a 36-bin histogram
// per spec §4.E.6: mask below 0.8*max, keep strict local maxima (wrapping
// at 0/35), parabola-interpolate each to sub-bin precision.
func histogramPeaks(hist [36]float64) []float64 {
	max := 0.0
	for _, v := range hist {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return nil
	}
	threshold := 0.8 * max

	var peaks []float64
	for b := 0; b < 36; b++ {
		v := hist[b]
		if v < threshold {
			continue
		}
		prev := hist[(b+35)%36]
		next := hist[(b+1)%36]
		if v <= prev || v <= next {
			continue
		}
		vertex, ok := parabolaVertex(float64(b-1), prev, float64(b), v, float64(b+1), next)
		if !ok {
			vertex = float64(b)
		}
		angle := math.Mod(vertex*10+5+360, 360)
		peaks = append(peaks, angle)
	}
	return peaks
}

// assignOrientations computes the dominant orientation(s) for each
// surviving keypoint, duplicating the keypoint once per additional peak
// (spec §4.E). Candidates whose window would overflow the nearest
// Gaussian level are marked filtered.
func assignOrientations(pyr *Pyramid, grad [][]GradientField, candidates []InterestPoint, cfg Config) []InterestPoint {
	r := cfg.DescriptorRadius
	out := make([]InterestPoint, 0, len(candidates))

	for _, p := range candidates {
		o, j, level := nearestLevel(pyr, p.Scale)
		img := level.Image

		if p.LocX < r || p.LocX >= img.Width-r || p.LocY < r || p.LocY >= img.Height-r {
			p.filtered = true
			out = append(out, p)
			continue
		}

		mag := grad[o][j].Magnitude
		ori := grad[o][j].Orientation
		weight := gaussianWeightWindow(r, 1.5*p.Scale)

		var hist [36]float64
		for dy := -r; dy < r; dy++ {
			for dx := -r; dx < r; dx++ {
				x, y := p.LocX+dx, p.LocY+dy
				m := float64(mag.At(x, y))
				theta := float64(ori.At(x, y))
				bin := int(math.Floor(theta/10)) % 36
				if bin < 0 {
					bin += 36
				}
				w := float64(weight.At(dx+r, dy+r))
				hist[bin] += w * m
			}
		}

		peaks := histogramPeaks(hist)
		if len(peaks) == 0 {
			p.filtered = true
			out = append(out, p)
			continue
		}

		for _, angle := range peaks {
			dup := p
			dup.Orientation = angle
			out = append(out, dup)
		}
	}

	return out
}
