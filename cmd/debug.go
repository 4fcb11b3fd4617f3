package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cwbudde/siftgo/internal/imageio"
	"github.com/cwbudde/siftgo/internal/resultio"
	"github.com/cwbudde/siftgo/internal/sift"
)

var (
	dumpDoGDir    string
	dumpKeypoints bool
	historyDir    string
)

func init() {
	detectCmd.Flags().StringVar(&dumpDoGDir, "dump-dog-dir", "", "If set, write every DoG level as a PNG under <dir>/runs/<run-id>/")
	detectCmd.Flags().BoolVar(&dumpKeypoints, "dump-keypoints", false, "If set, write a keypoint overlay PNG under <dir>/runs/<run-id>/")
	detectCmd.Flags().StringVar(&historyDir, "history-dir", "", "If set, append a one-line summary of each run to <dir>/history.jsonl")
}

// appendHistory records a compact summary of the run to the history log,
// if --history-dir was provided. A no-op otherwise.
func appendHistory(runID, sourcePath string, keypoints int, at time.Time) error {
	if historyDir == "" {
		return nil
	}
	hw, err := resultio.NewHistoryWriter(historyDir)
	if err != nil {
		return err
	}
	defer hw.Close()

	return hw.Write(resultio.HistoryEntry{
		RunID:      runID,
		SourcePath: sourcePath,
		Keypoints:  keypoints,
		Timestamp:  at,
	})
}

// writeDebugArtifacts writes the optional debug artifacts requested by
// --dump-dog-dir and --dump-keypoints (spec §6 "Debug artifacts"). It
// re-runs pyramid construction since Calculate does not expose its
// intermediate pyramid; debug mode accepts the extra cost.
func writeDebugArtifacts(img *sift.Image, cfg sift.Config, points []sift.InterestPoint, runID string) error {
	baseDir := dumpDoGDir
	if baseDir == "" {
		baseDir = "."
	}
	dir := resultio.DebugDir(baseDir, runID)

	if dumpDoGDir != "" {
		pyr := sift.DebugPyramid(img, cfg)
		if err := imageio.SaveDoGDebug(dir, pyr); err != nil {
			return fmt.Errorf("failed to write DoG debug images: %w", err)
		}
		slog.Info("wrote DoG debug images", "dir", dir)
	}

	if dumpKeypoints {
		overlayPath := filepath.Join(dir, "keypoints.png")
		if err := imageio.SaveKeypointOverlay(overlayPath, img, points); err != nil {
			return fmt.Errorf("failed to write keypoint overlay: %w", err)
		}
		slog.Info("wrote keypoint overlay", "path", overlayPath)
	}

	return nil
}
