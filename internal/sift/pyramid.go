package sift

import (
	"log/slog"
	"math"
)

// buildPyramid constructs the Gaussian and DoG pyramids per spec §4.B.
// The input image is assumed already validated against cfg (shape, config).
func buildPyramid(input *Image, cfg Config) *Pyramid {
	src := input
	if cfg.Subpixel {
		src = upsampleDouble(input, 1.0)
	}

	O := cfg.Octaves
	S := cfg.DoGsPerOctave

	pyr := &Pyramid{
		Octaves: O,
		S:       S,
		Gauss:   make([][]Level, O),
		DoG:     make([][]Level, O),
	}

	first := convolveGauss(src, cfg.Sigma)
	octaveSeed := first
	seedScale := cfg.Sigma

	for o := 0; o < O; o++ {
		gauss := make([]Level, S+2)
		gauss[0] = Level{Scale: seedScale, Image: octaveSeed}

		// Scale is derived from this octave's own seed (seedScale), not
		// reset to sigma0 every octave (spec §4.B.3's exponent counter):
		// resetting would make the scale series non-monotonic and
		// duplicate the seed's own scale partway through each octave
		// beyond the first.
		for j := 1; j <= S+1; j++ {
			scale := math.Pow(cfg.K, float64(j)) * seedScale
			gauss[j] = Level{
				Scale: scale,
				Image: convolveGauss(gauss[j-1].Image, scale),
			}
		}
		pyr.Gauss[o] = gauss

		dogLevels := make([]Level, S)
		for j := 1; j <= S; j++ {
			i := j - 1
			dogLevels[i] = Level{
				Scale: gauss[j].Scale - gauss[j-1].Scale,
				Image: dog(gauss[j-1].Image, gauss[j].Image),
			}
		}
		pyr.DoG[o] = dogLevels

		slog.Debug("built octave", "octave", o, "width", gauss[0].Image.Width, "height", gauss[0].Image.Height)

		if o < O-1 {
			base := gauss[S-1]
			octaveSeed = downsampleHalf(base.Image, base.Scale)
			seedScale = base.Scale
		}
	}

	return pyr
}

// nearestLevel finds the Gaussian level across all octaves whose scale is
// closest to the given sigma (spec §4.E.1).
func nearestLevel(pyr *Pyramid, sigma float64) (octave, index int, level Level) {
	bestDiff := math.Inf(1)
	for o, levels := range pyr.Gauss {
		for j, lvl := range levels {
			diff := math.Abs(lvl.Scale - sigma)
			if diff < bestDiff {
				bestDiff = diff
				octave, index, level = o, j, lvl
			}
		}
	}
	return
}
