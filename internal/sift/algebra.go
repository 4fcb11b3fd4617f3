package sift

import (
	"log/slog"
	"math"

	"golang.org/x/sys/cpu"
)

// convolutionBackend names the code path selected for the separable
// Gaussian convolution's inner accumulation loop. Every backend produces
// the same result up to floating-point summation-order rounding; the
// distinction is purely a loop-unrolling choice,
// mirroring the teacher's SSD/SAD backend selection (golang.org/x/sys/cpu
// feature probing, logged once at init()).
type convolutionBackend int

const (
	backendScalar convolutionBackend = iota
	backendUnrolledAVX2
	backendUnrolledNEON
)

func (b convolutionBackend) String() string {
	switch b {
	case backendUnrolledAVX2:
		return "unrolled-avx2-width"
	case backendUnrolledNEON:
		return "unrolled-neon-width"
	default:
		return "scalar"
	}
}

// activeBackend records which accumulation width was selected for the
// separable convolution kernel.
var activeBackend convolutionBackend

func init() {
	switch {
	case cpu.X86.HasAVX2:
		activeBackend = backendUnrolledAVX2
		slog.Debug("gaussian kernel initialized", "backend", activeBackend.String())
	case cpu.ARM64.HasASIMD:
		activeBackend = backendUnrolledNEON
		slog.Debug("gaussian kernel initialized", "backend", activeBackend.String())
	default:
		activeBackend = backendScalar
		slog.Debug("gaussian kernel initialized", "backend", activeBackend.String(), "reason", "no SIMD support detected")
	}
}

// gaussianKernel1D returns a normalized 1D Gaussian kernel truncated at
// approximately 3 sigma, along with its radius.
func gaussianKernel1D(sigma float64) (kernel []float64, radius int) {
	if sigma <= 0 {
		return []float64{1}, 0
	}
	radius = int(math.Ceil(3 * sigma))
	if radius < 1 {
		radius = 1
	}
	kernel = make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel, radius
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// weightedSumScalar sums samples[i]*weights[i] one term at a time.
func weightedSumScalar(samples, weights []float64) float64 {
	var acc float64
	for i, s := range samples {
		acc += s * weights[i]
	}
	return acc
}

// weightedSumUnrolled sums samples[i]*weights[i] in groups of width,
// accumulating each group before folding it into the running total. Every
// width produces the same sum as weightedSumScalar up to floating-point
// summation-order rounding.
func weightedSumUnrolled(samples, weights []float64, width int) float64 {
	var acc float64
	n := len(samples)
	i := 0
	for ; i+width <= n; i += width {
		var group float64
		for j := 0; j < width; j++ {
			group += samples[i+j] * weights[i+j]
		}
		acc += group
	}
	for ; i < n; i++ {
		acc += samples[i] * weights[i]
	}
	return acc
}

// weightedSum dispatches to the accumulation width selected by
// activeBackend at init() time.
func weightedSum(samples, weights []float64) float64 {
	switch activeBackend {
	case backendUnrolledAVX2:
		return weightedSumUnrolled(samples, weights, 4)
	case backendUnrolledNEON:
		return weightedSumUnrolled(samples, weights, 2)
	default:
		return weightedSumScalar(samples, weights)
	}
}

// convolveGauss applies a separable Gaussian blur of standard deviation
// sigma, first along x then along y. Border pixels are handled by edge
// replication. Each pass gathers the clamped neighborhood into samples and
// folds it through weightedSum, so the accumulation width actually follows
// activeBackend rather than naming it for show.
func convolveGauss(img *Image, sigma float64) *Image {
	kernel, radius := gaussianKernel1D(sigma)
	w, h := img.Width, img.Height
	samples := make([]float64, 2*radius+1)

	tmp := NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for i, k := 0, -radius; k <= radius; i, k = i+1, k+1 {
				samples[i] = float64(img.At(clampIndex(x+k, w), y))
			}
			tmp.Set(x, y, float32(weightedSum(samples, kernel)))
		}
	}

	out := NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for i, k := 0, -radius; k <= radius; i, k = i+1, k+1 {
				samples[i] = float64(tmp.At(x, clampIndex(y+k, h)))
			}
			out.Set(x, y, float32(weightedSum(samples, kernel)))
		}
	}
	return out
}

// downsampleHalf blurs img with sigma, then nearest-neighbor subsamples to
// shape (ceil(w/2), ceil(h/2)).
func downsampleHalf(img *Image, sigma float64) *Image {
	blurred := convolveGauss(img, sigma)
	newW := (img.Width + 1) / 2
	newH := (img.Height + 1) / 2
	out := NewImage(newW, newH)
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			out.Set(x, y, blurred.At(clampIndex(2*x, img.Width), clampIndex(2*y, img.Height)))
		}
	}
	return out
}

// upsampleDouble nearest-neighbor doubles img's shape, then blurs with
// sigma to smooth the blocky enlargement.
func upsampleDouble(img *Image, sigma float64) *Image {
	newW := img.Width * 2
	newH := img.Height * 2
	expanded := NewImage(newW, newH)
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			expanded.Set(x, y, img.At(x/2, y/2))
		}
	}
	return convolveGauss(expanded, sigma)
}

// dog computes the pixel-wise difference of Gaussians with a presentation
// bias of +128, so debug dumps stay non-negative. Refinement always reads
// the raw (unbiased) difference via the dogRaw helper below.
func dog(low, high *Image) *Image {
	out := NewImage(low.Width, low.Height)
	for y := 0; y < low.Height; y++ {
		for x := 0; x < low.Width; x++ {
			out.Set(x, y, 128+(high.At(x, y)-low.At(x, y)))
		}
	}
	return out
}

// dogRaw returns the unbiased sample value D(x,y) = dog(x,y) - 128, used
// by the refiner (spec §4.D note).
func dogRaw(img *Image, x, y int) float64 {
	return float64(img.At(x, y)) - 128
}

func gradientMagnitude(img *Image, x, y int) float64 {
	dx := float64(img.At(x+1, y) - img.At(x-1, y))
	dy := float64(img.At(x, y+1) - img.At(x, y-1))
	return math.Sqrt(dx*dx + dy*dy)
}

func gradientOrientation(img *Image, x, y int) float64 {
	dy := float64(img.At(x, y+1) - img.At(x, y-1))
	dx := float64(img.At(x+1, y) - img.At(x-1, y))
	theta := math.Atan2(dy, dx) * 180 / math.Pi
	theta = math.Mod(theta+360, 360)
	return theta
}

// firstDerivative returns the central-difference gradient (dx, dy, ds)
// of a DoG stack3 (images at scale indices i-1, i, i+1) at (x, y).
func firstDerivative(stack3 [3]*Image, x, y int) (dx, dy, ds float64) {
	dx = (dogRaw(stack3[1], x+1, y) - dogRaw(stack3[1], x-1, y)) / 2
	dy = (dogRaw(stack3[1], x, y+1) - dogRaw(stack3[1], x, y-1)) / 2
	ds = (dogRaw(stack3[2], x, y) - dogRaw(stack3[0], x, y)) / 2
	return
}

// hessian3 is the symmetric 3x3 second-derivative matrix (dxx, dxy, dxs;
// dxy, dyy, dys; dxs, dys, dss).
type hessian3 struct {
	Dxx, Dyy, Dss float64
	Dxy, Dxs, Dys float64
}

// secondDerivative returns the 3x3 Hessian of a DoG stack3 at (x, y).
// Dys uses the corrected cross-scale mixed derivative (spec §9); the
// source's self-subtracting formula is not reproduced.
func secondDerivative(stack3 [3]*Image, x, y int) hessian3 {
	center := dogRaw(stack3[1], x, y)

	dxx := dogRaw(stack3[1], x+1, y) + dogRaw(stack3[1], x-1, y) - 2*center
	dyy := dogRaw(stack3[1], x, y+1) + dogRaw(stack3[1], x, y-1) - 2*center
	dss := dogRaw(stack3[2], x, y) + dogRaw(stack3[0], x, y) - 2*center

	dxy := (dogRaw(stack3[1], x+1, y+1) - dogRaw(stack3[1], x-1, y+1) -
		dogRaw(stack3[1], x+1, y-1) + dogRaw(stack3[1], x-1, y-1)) / 2

	dxs := ((dogRaw(stack3[2], x+1, y) - dogRaw(stack3[2], x-1, y)) -
		(dogRaw(stack3[0], x+1, y) - dogRaw(stack3[0], x-1, y))) / 2

	dys := ((dogRaw(stack3[2], x, y+1) - dogRaw(stack3[2], x, y-1)) -
		(dogRaw(stack3[0], x, y+1) - dogRaw(stack3[0], x, y-1))) / 2

	return hessian3{Dxx: dxx, Dyy: dyy, Dss: dss, Dxy: dxy, Dxs: dxs, Dys: dys}
}

// solve3x3 solves Ax = b exactly via Cramer's rule. ok is false when A is
// singular (within a small numerical tolerance).
func solve3x3(a [3][3]float64, b [3]float64) (x [3]float64, ok bool) {
	det := det3(a)
	if math.Abs(det) < 1e-12 {
		return x, false
	}
	for col := 0; col < 3; col++ {
		m := a
		for row := 0; row < 3; row++ {
			m[row][col] = b[row]
		}
		x[col] = det3(m) / det
	}
	return x, true
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// parabolaVertex fits a quadratic through three points and returns the
// x-coordinate of its vertex, via solve3x3 on the Vandermonde system.
func parabolaVertex(xm, ym, x0, y0, xp, yp float64) (vertex float64, ok bool) {
	a := [3][3]float64{
		{xm * xm, xm, 1},
		{x0 * x0, x0, 1},
		{xp * xp, xp, 1},
	}
	b := [3]float64{ym, y0, yp}
	coef, ok := solve3x3(a, b)
	if !ok || coef[0] == 0 {
		return 0, false
	}
	return -coef[1] / (2 * coef[0]), true
}

// normalizeL2 divides every element by the L2 norm of the vector. A
// zero-norm vector is returned unchanged (division by zero is avoided,
// not silently producing NaNs). normalizeL2(normalizeL2(v)) == normalizeL2(v)
// for any v with nonzero norm.
func normalizeL2(vec []float64) {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range vec {
		vec[i] /= norm
	}
}
