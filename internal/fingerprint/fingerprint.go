// Package fingerprint computes cheap perceptual signatures of frames so the
// watch loop can decide whether a screen changed without running OCR or a
// vision model on every tick.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"image"

	"golang.org/x/image/draw"
)

// GridSize is the edge length of the downsampled luminance grid. 32x32 keeps
// a compute under a millisecond on full-screen frames while still catching
// dialog-sized changes.
const GridSize = 32

// Fingerprint is a GridSize*GridSize grid of 8-bit luminance cells. It is a
// deterministic function of pixel content.
type Fingerprint []byte

// Compute downsamples the frame to the grid and records per-cell grayscale
// intensity.
func Compute(img image.Image) Fingerprint {
	gray := image.NewGray(image.Rect(0, 0, GridSize, GridSize))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	fp := make(Fingerprint, GridSize*GridSize)
	copy(fp, gray.Pix)
	return fp
}

// Distance returns the normalized mean absolute difference between two
// fingerprints in [0,1], where 0 means identical. A missing or mismatched
// fingerprint compares as maximally different so the first sample of a
// session is always treated as a change.
func Distance(a, b Fingerprint) float64 {
	if a == nil || b == nil {
		return 1.0
	}
	if len(a) != len(b) {
		return 1.0
	}

	var total int
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < 0 {
			d = -d
		}
		total += d
	}
	return float64(total) / (float64(len(a)) * 255.0)
}

// Hash returns a short stable key for cache lookups.
func (f Fingerprint) Hash() string {
	sum := sha256.Sum256(f)
	return hex.EncodeToString(sum[:8])
}
