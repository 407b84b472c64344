package vision

import (
	"image"
	"image/color"
	"testing"
)

// createTestImage draws a bright square on a dark background so the edge
// detector has something to find.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{32, 32, 32, 255})
			}
		}
	}
	return img
}

func TestDetect(t *testing.T) {
	if Detect(true) != nil {
		t.Error("Detect(true) should return nil when capability is disabled")
	}
	if Detect(false) == nil {
		t.Error("Detect(false) should return an analyzer")
	}
}

func TestHeatmapDimensions(t *testing.T) {
	analyzer := NewEdgeAnalyzer()
	img := createTestImage(120, 90)

	heat, err := analyzer.Heatmap(img)
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	if len(heat) != 90 {
		t.Errorf("Expected 90 rows, got %d", len(heat))
	}
	if len(heat[0]) != 120 {
		t.Errorf("Expected 120 columns, got %d", len(heat[0]))
	}
}

func TestHeatmapConcentratesOnEdges(t *testing.T) {
	analyzer := NewEdgeAnalyzer()
	img := createTestImage(120, 90)

	heat, err := analyzer.Heatmap(img)
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}

	// The square's left edge sits at x=40; the far corner is flat.
	onEdge := heat[45][40]
	flat := heat[5][5]
	if onEdge <= flat {
		t.Errorf("Expected edge heat %f to exceed flat heat %f", onEdge, flat)
	}
}

func TestHeatmapFlatImageIsCold(t *testing.T) {
	analyzer := NewEdgeAnalyzer()
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}

	heat, err := analyzer.Heatmap(img)
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	for y := range heat {
		for x := range heat[y] {
			if heat[y][x] != 0 {
				t.Fatalf("Expected zero heat at (%d,%d), got %f", x, y, heat[y][x])
			}
		}
	}
}

func TestHeatmapTooSmall(t *testing.T) {
	analyzer := NewEdgeAnalyzer()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	if _, err := analyzer.Heatmap(img); err == nil {
		t.Error("Expected error for a 2x2 image")
	}
}

func TestConfigKernelNormalization(t *testing.T) {
	analyzer := NewEdgeAnalyzerWithConfig(AnalyzerConfig{
		LowThreshold:  50,
		HighThreshold: 150,
		BlurKernel:    10, // even, must be bumped to odd
	})
	if analyzer.config.BlurKernel%2 == 0 {
		t.Errorf("Expected odd kernel, got %d", analyzer.config.BlurKernel)
	}
}

func BenchmarkHeatmap(b *testing.B) {
	analyzer := NewEdgeAnalyzer()
	img := createTestImage(800, 450)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		analyzer.Heatmap(img)
	}
}
