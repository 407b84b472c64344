package vision

import (
	"fmt"
	"image"
	"math"
)

// Analyzer produces a per-pixel importance heatmap for an image. The smart
// crop selector sums heatmap values inside candidate windows, so higher
// values mean "keep this region".
type Analyzer interface {
	Heatmap(img image.Image) ([][]float64, error)
}

// EdgeAnalyzer builds an importance heatmap from edge density: grayscale
// intensity, Sobel gradient magnitude with a dual threshold, then a wide
// Gaussian blur that spreads sparse edge pixels into a smooth density
// surface.
type EdgeAnalyzer struct {
	config AnalyzerConfig
}

// AnalyzerConfig holds tunable parameters for edge-density analysis.
// Thresholds are on a 0-255 gradient magnitude scale.
type AnalyzerConfig struct {
	LowThreshold  float64
	HighThreshold float64
	BlurKernel    int
}

// NewEdgeAnalyzer creates an EdgeAnalyzer with default configuration.
func NewEdgeAnalyzer() *EdgeAnalyzer {
	return &EdgeAnalyzer{
		config: AnalyzerConfig{
			LowThreshold:  50,
			HighThreshold: 150,
			BlurKernel:    21,
		},
	}
}

// NewEdgeAnalyzerWithConfig creates an EdgeAnalyzer with custom configuration.
func NewEdgeAnalyzerWithConfig(config AnalyzerConfig) *EdgeAnalyzer {
	if config.BlurKernel < 3 {
		config.BlurKernel = 3
	}
	if config.BlurKernel%2 == 0 {
		config.BlurKernel++
	}
	return &EdgeAnalyzer{config: config}
}

// Detect resolves the content-aware analysis capability once at startup.
// It returns nil when the capability is disabled; callers thread the result
// into the selector instead of re-probing per call.
func Detect(disabled bool) Analyzer {
	if disabled {
		return nil
	}
	return NewEdgeAnalyzer()
}

// Heatmap computes the edge-density importance surface for img.
func (a *EdgeAnalyzer) Heatmap(img image.Image) ([][]float64, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return nil, fmt.Errorf("image %dx%d too small for edge analysis", width, height)
	}

	intensity := grayIntensity(img)
	magnitude := sobelMagnitude(intensity, width, height)
	edges := a.thresholdEdges(magnitude, width, height)

	heat := gaussianBlur(edges, width, height, a.config.BlurKernel)
	return heat, nil
}

// grayIntensity converts an image to a single-channel 0-255 intensity grid.
func grayIntensity(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	intensity := make([][]float64, height)
	for y := 0; y < height; y++ {
		intensity[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// Rec. 601 luma on the 16-bit channel values
			luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			intensity[y][x] = luma / 257.0
		}
	}
	return intensity
}

// sobelMagnitude computes the gradient magnitude of an intensity grid.
func sobelMagnitude(intensity [][]float64, width, height int) [][]float64 {
	magnitude := make([][]float64, height)
	for y := range magnitude {
		magnitude[y] = make([]float64, width)
	}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx := -intensity[y-1][x-1] + intensity[y-1][x+1] +
				-2*intensity[y][x-1] + 2*intensity[y][x+1] +
				-intensity[y+1][x-1] + intensity[y+1][x+1]
			gy := -intensity[y-1][x-1] - 2*intensity[y-1][x] - intensity[y-1][x+1] +
				intensity[y+1][x-1] + 2*intensity[y+1][x] + intensity[y+1][x+1]
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
		}
	}
	return magnitude
}

// thresholdEdges binarizes a gradient magnitude grid with a dual threshold:
// strong gradients always count, weak ones only when they touch a strong
// neighbor.
func (a *EdgeAnalyzer) thresholdEdges(magnitude [][]float64, width, height int) [][]float64 {
	edges := make([][]float64, height)
	for y := range edges {
		edges[y] = make([]float64, width)
	}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			m := magnitude[y][x]
			if m >= a.config.HighThreshold {
				edges[y][x] = 1
				continue
			}
			if m < a.config.LowThreshold {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if magnitude[y+dy][x+dx] >= a.config.HighThreshold {
						edges[y][x] = 1
						dy, dx = 2, 2
					}
				}
			}
		}
	}
	return edges
}

// gaussianBlur applies a separable Gaussian blur with the given odd kernel
// size. Sigma follows the usual kernel/6 rule so the kernel covers ~3 sigma
// on each side.
func gaussianBlur(grid [][]float64, width, height, kernel int) [][]float64 {
	radius := kernel / 2
	sigma := float64(kernel) / 6.0
	weights := make([]float64, kernel)
	var sum float64
	for i := 0; i < kernel; i++ {
		d := float64(i - radius)
		weights[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}

	// Horizontal pass
	tmp := make([][]float64, height)
	for y := 0; y < height; y++ {
		tmp[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var v float64
			for i := 0; i < kernel; i++ {
				sx := clampInt(x+i-radius, 0, width-1)
				v += grid[y][sx] * weights[i]
			}
			tmp[y][x] = v
		}
	}

	// Vertical pass
	out := make([][]float64, height)
	for y := 0; y < height; y++ {
		out[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var v float64
			for i := 0; i < kernel; i++ {
				sy := clampInt(y+i-radius, 0, height-1)
				v += tmp[sy][x] * weights[i]
			}
			out[y][x] = v
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
