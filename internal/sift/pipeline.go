package sift

import (
	"log/slog"
	"math"
	"sort"
)

// Calculate runs the full detector pipeline (components A-F) over image
// and returns the final, deterministically ordered list of interest
// points. It returns a *ConfigError or *ShapeError before doing any work
// if the configuration or input shape is invalid (spec §7); per-candidate
// numerical or out-of-window rejections never escape this call.
func Calculate(image *Image, cfg Config) ([]InterestPoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateShape(image.Width, image.Height, cfg.Octaves); err != nil {
		return nil, err
	}

	slog.Info("building pyramid", "octaves", cfg.Octaves, "dogs_per_octave", cfg.DoGsPerOctave, "subpixel", cfg.Subpixel)
	pyr := buildPyramid(image, cfg)

	candidates := findExtrema(pyr)
	slog.Info("found extrema", "count", len(candidates))

	candidates = refineKeypoints(candidates, pyr, cfg)
	candidates = keepSurviving(candidates)
	slog.Info("refined keypoints", "surviving", len(candidates))

	grad := buildGradientFields(pyr)

	candidates = assignOrientations(pyr, grad, candidates, cfg)
	candidates = keepSurviving(candidates)
	slog.Info("assigned orientations", "surviving", len(candidates))

	candidates = buildDescriptors(pyr, grad, candidates, cfg)
	candidates = keepSurviving(candidates)
	slog.Info("built descriptors", "surviving", len(candidates))

	rescaleToCallerCoordinates(candidates, cfg)
	sortDeterministic(candidates)

	return candidates, nil
}

// DebugPyramid exposes pyramid construction on its own, for tooling that
// wants to dump the Gaussian/DoG levels (spec §6 "Debug artifacts") without
// paying for the rest of Calculate. Callers are responsible for validating
// cfg first, as Calculate does internally.
func DebugPyramid(image *Image, cfg Config) *Pyramid {
	return buildPyramid(image, cfg)
}

// keepSurviving returns only the non-filtered entries, preserving order.
func keepSurviving(points []InterestPoint) []InterestPoint {
	out := points[:0]
	for _, p := range points {
		if !p.filtered {
			out = append(out, p)
		}
	}
	return out
}

// rescaleToCallerCoordinates maps each point's octave-local pixel location
// to the input image's coordinate system (spec §6 "Output"):
// (loc.x * 2^octave / d, loc.y * 2^octave / d), d = 2 if Subpixel else 1.
func rescaleToCallerCoordinates(points []InterestPoint, cfg Config) {
	d := 1.0
	if cfg.Subpixel {
		d = 2.0
	}
	for i := range points {
		factor := float64(int(1) << uint(points[i].Octave))
		points[i].LocX = int(math.Round(float64(points[i].LocX) * factor / d))
		points[i].LocY = int(math.Round(float64(points[i].LocY) * factor / d))
	}
}

// sortDeterministic orders the final list by (octave, index, y, x,
// orientation) so that parallelised builds remain reproducible (spec §5).
func sortDeterministic(points []InterestPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if a.Octave != b.Octave {
			return a.Octave < b.Octave
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		if a.LocY != b.LocY {
			return a.LocY < b.LocY
		}
		if a.LocX != b.LocX {
			return a.LocX < b.LocX
		}
		return a.Orientation < b.Orientation
	})
}
