package sift

import "fmt"

// ConfigError reports an invalid Config field. It is fatal for the
// invocation: Calculate returns it before doing any work.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("sift: invalid config field %s: %s", e.Field, e.Reason)
}

// ShapeError reports an input image too small for the requested number of
// octaves. It is fatal for the invocation.
type ShapeError struct {
	Width, Height int
	Octaves       int
	Reason        string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("sift: image %dx%d cannot support %d octaves: %s",
		e.Width, e.Height, e.Octaves, e.Reason)
}

// Validate checks the configuration for fatal errors (spec §7.1). It never
// reports the numerical-rejection or out-of-window conditions (§7.3, §7.4);
// those are per-candidate and never escape Calculate.
func (c Config) Validate() error {
	if c.DoGsPerOctave < 3 {
		return &ConfigError{Field: "DoGsPerOctave", Reason: "must be >= 3"}
	}
	if c.Octaves < 1 {
		return &ConfigError{Field: "Octaves", Reason: "must be >= 1"}
	}
	if c.Sigma <= 0 {
		return &ConfigError{Field: "Sigma", Reason: "must be > 0"}
	}
	if c.K <= 1 {
		return &ConfigError{Field: "K", Reason: "must be > 1"}
	}
	if c.DescriptorRadius <= 0 {
		return &ConfigError{Field: "DescriptorRadius", Reason: "must be > 0"}
	}
	if c.EdgeThreshold <= 0 {
		return &ConfigError{Field: "EdgeThreshold", Reason: "must be > 0"}
	}
	return nil
}

// validateShape checks that the image supports the requested octave count
// (spec §7.2): the image must be at least 32x32, and each octave must still
// be at least 4x4 after Octaves-1 halvings. Whether the orientation and
// descriptor windows fit is not checked here; candidates whose windows
// overflow their level are filtered later.
func validateShape(width, height, octaves int) error {
	if width < 32 || height < 32 {
		return &ShapeError{Width: width, Height: height, Octaves: octaves,
			Reason: "image smaller than the minimum 32x32"}
	}
	w, h := width, height
	for o := 1; o < octaves; o++ {
		w = (w + 1) / 2
		h = (h + 1) / 2
		if w < 4 || h < 4 {
			return &ShapeError{Width: width, Height: height, Octaves: octaves,
				Reason: "too many octaves for image dimensions"}
		}
	}
	return nil
}
