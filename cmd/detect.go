package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/siftgo/internal/imageio"
	"github.com/cwbudde/siftgo/internal/resultio"
	"github.com/cwbudde/siftgo/internal/sift"
)

var (
	inPath            string
	outPath           string
	sigma             float64
	k                 float64
	dogsPerOctave     int
	octaves           int
	subpixel          bool
	contrastThreshold float64
	edgeThreshold     float64
	descriptorRadius  int
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect scale-invariant keypoints in an image",
	Long:  `Runs the full detector pipeline over an image and writes the keypoints as JSON.`,
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&inPath, "in", "", "Input image path (required)")
	detectCmd.Flags().StringVar(&outPath, "out", "keypoints.json", "Output JSON path")

	cfg := sift.DefaultConfig()
	detectCmd.Flags().Float64Var(&sigma, "sigma", cfg.Sigma, "Initial Gaussian blur standard deviation")
	detectCmd.Flags().Float64Var(&k, "k", cfg.K, "Scale multiplier between successive Gaussians")
	detectCmd.Flags().IntVar(&dogsPerOctave, "dogs-per-octave", cfg.DoGsPerOctave, "Number of DoG levels per octave (>= 3)")
	detectCmd.Flags().IntVar(&octaves, "octaves", cfg.Octaves, "Number of octaves")
	detectCmd.Flags().BoolVar(&subpixel, "subpixel", cfg.Subpixel, "Pre-double the input image for sub-pixel accuracy")
	detectCmd.Flags().Float64Var(&contrastThreshold, "contrast-threshold", cfg.ContrastThreshold, "Low-contrast rejection threshold, [0,255] units")
	detectCmd.Flags().Float64Var(&edgeThreshold, "edge-threshold", cfg.EdgeThreshold, "Edge-response curvature ratio r")
	detectCmd.Flags().IntVar(&descriptorRadius, "descriptor-radius", cfg.DescriptorRadius, "Half-window size for orientation and descriptor formation")

	detectCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg := sift.Config{
		Sigma:             sigma,
		K:                 k,
		DoGsPerOctave:     dogsPerOctave,
		Octaves:           octaves,
		Subpixel:          subpixel,
		ContrastThreshold: contrastThreshold,
		EdgeThreshold:     edgeThreshold,
		DescriptorRadius:  descriptorRadius,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("loading image", "path", inPath)
	img, err := imageio.Load(inPath)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	slog.Info("loaded image", "width", img.Width, "height", img.Height)

	start := time.Now()
	points, err := sift.Calculate(img, cfg)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}
	elapsed := time.Since(start)

	runID := resultio.NewRunID()
	now := time.Now()
	result := resultio.NewResult(runID, inPath, img.Width, img.Height, cfg, points, now)
	if err := resultio.WriteJSON(outPath, result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if err := appendHistory(runID, inPath, len(points), now); err != nil {
		slog.Warn("failed to append run history", "error", err)
	}

	slog.Info("detection complete",
		"elapsed", elapsed,
		"keypoints", len(points),
		"run_id", runID,
	)
	fmt.Printf("Wrote %s (%d keypoints, %s)\n", outPath, len(points), elapsed)

	if dumpDoGDir != "" || dumpKeypoints {
		return writeDebugArtifacts(img, cfg, points, runID)
	}
	return nil
}
