package sift

import "math"

// descriptorMagnitudeSigma is the Gaussian standard deviation used to
// reweight the descriptor window's gradient magnitudes. Spec §4.F.4
// describes this as "half the window size" but names the value actually
// used by the reference as 1.6; this implementation follows the named
// literal rather than the descriptive formula, consistent with the
// Sigma default elsewhere in the pipeline.
const descriptorMagnitudeSigma = 1.6

// buildDescriptors produces the 128-value descriptor for each surviving
// oriented keypoint (spec §4.F). Candidates whose window overflows the
// nearest Gaussian level are marked filtered.
func buildDescriptors(pyr *Pyramid, grad [][]GradientField, candidates []InterestPoint, cfg Config) []InterestPoint {
	r := cfg.DescriptorRadius
	sub := (2 * r) / 4

	for idx := range candidates {
		p := &candidates[idx]
		if p.filtered {
			continue
		}

		o, j, level := nearestLevel(pyr, p.Scale)
		img := level.Image
		if p.LocX < r || p.LocX >= img.Width-r || p.LocY < r || p.LocY >= img.Height-r {
			p.filtered = true
			continue
		}

		mag := grad[o][j].Magnitude
		ori := grad[o][j].Orientation
		weight := gaussianWeightWindow(r, descriptorMagnitudeSigma)

		descriptor := make([]float64, 0, 128)
		for sy := 0; sy < 4; sy++ {
			for sx := 0; sx < 4; sx++ {
				var hist [8]float64
				for dy := sy*sub - r; dy < (sy+1)*sub-r; dy++ {
					for dx := sx*sub - r; dx < (sx+1)*sub-r; dx++ {
						x, y := p.LocX+dx, p.LocY+dy
						m := float64(mag.At(x, y))
						theta := float64(ori.At(x, y))
						// Rotate relative to the keypoint orientation by
						// subtraction (spec §9 corrects the source's
						// addition bug).
						rel := math.Mod(theta-p.Orientation+360, 360)
						bin := int(math.Floor(rel/45)) % 8
						if bin < 0 {
							bin += 8
						}
						w := float64(weight.At(dx+r, dy+r))
						hist[bin] += w * m
					}
				}

				descriptor = append(descriptor, hist[:]...)
			}
		}

		// Normalize, clamp and renormalize over the full 128-value
		// descriptor, not per sub-histogram (spec §9, testable property
		// §8-4: the descriptor as a whole is unit-norm, not each of its
		// 16 blocks independently).
		normalizeL2(descriptor)
		clamped := false
		for i, v := range descriptor {
			if v > 0.2 {
				descriptor[i] = 0.2
				clamped = true
			}
		}
		if clamped {
			normalizeL2(descriptor)
		}

		p.Descriptor = descriptor
	}

	return candidates
}
