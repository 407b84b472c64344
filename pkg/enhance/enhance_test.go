package enhance

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createDetailImage draws a deterministic busy pattern so interpolation and
// sharpening have frequencies to work with.
func createDetailImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := 0.5 + 0.4*math.Sin(float64(x)/3.0)*math.Cos(float64(y)/5.0)
			r := uint8(255 * v)
			g := uint8(255 * (1 - v))
			b := uint8(128 + 64*math.Sin(float64(x+y)/7.0))
			img.SetNRGBA(x, y, color.NRGBA{r, g, b, 255})
		}
	}
	return img
}

// laplacianVariance measures local sharpness: the variance of the discrete
// Laplacian of the luminance plane.
func laplacianVariance(img image.Image) float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	luma := make([][]float64, height)
	for y := 0; y < height; y++ {
		luma[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			luma[y][x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
		}
	}

	var sum, sum2 float64
	n := 0
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			lap := luma[y-1][x] + luma[y+1][x] + luma[y][x-1] + luma[y][x+1] - 4*luma[y][x]
			sum += lap
			sum2 += lap * lap
			n++
		}
	}
	mean := sum / float64(n)
	return sum2/float64(n) - mean*mean
}

func TestDetect(t *testing.T) {
	if !Detect(true).Fallback() {
		t.Error("Detect(true) should return the fallback enhancer")
	}
	if Detect(false).Fallback() {
		t.Error("Detect(false) should return the advanced enhancer")
	}
}

func TestIdentityFastPath(t *testing.T) {
	img := createDetailImage(200, 100)

	for _, e := range []Enhancer{&Advanced{}, &Basic{}} {
		out, err := e.Enhance(img, 200, 100, DefaultProfile())
		if err != nil {
			t.Fatalf("Enhance failed: %v", err)
		}
		if out != image.Image(img) {
			t.Errorf("Expected the input image back unchanged on exact size match")
		}
	}
}

func TestEnhanceTargetSize(t *testing.T) {
	img := createDetailImage(283, 159)

	for _, e := range []Enhancer{&Advanced{}, &Basic{}} {
		out, err := e.Enhance(img, 800, 450, DefaultProfile())
		if err != nil {
			t.Fatalf("Enhance failed: %v", err)
		}
		b := out.Bounds()
		if b.Dx() != 800 || b.Dy() != 450 {
			t.Errorf("Expected 800x450, got %dx%d", b.Dx(), b.Dy())
		}
	}
}

func TestEnhanceInvalidSize(t *testing.T) {
	img := createDetailImage(100, 100)

	if _, err := (&Advanced{}).Enhance(img, 0, 450, DefaultProfile()); err == nil {
		t.Error("Expected error for zero target width")
	}
	if _, err := (&Basic{}).Enhance(img, 800, -1, DefaultProfile()); err == nil {
		t.Error("Expected error for negative target height")
	}
}

// The advanced chain must measurably out-sharpen a plain Lanczos resize,
// otherwise the enhancement has regressed to a no-op.
func TestAdvancedSharperThanPlainResize(t *testing.T) {
	img := createDetailImage(283, 159)
	profile := DefaultProfile()

	advanced, err := (&Advanced{}).Enhance(img, 800, 450, profile)
	if err != nil {
		t.Fatalf("Advanced enhance failed: %v", err)
	}
	plain, err := (&Basic{}).Enhance(img, 800, 450, profile)
	if err != nil {
		t.Fatalf("Basic enhance failed: %v", err)
	}

	advVar := laplacianVariance(advanced)
	plainVar := laplacianVariance(plain)
	if advVar <= plainVar {
		t.Errorf("Expected advanced sharpness %f to exceed plain resize %f", advVar, plainVar)
	}
}

// Contrast enhancement works on luminance only; a gray input must stay
// exactly gray.
func TestGrayInputStaysGray(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 160, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 160; x++ {
			v := uint8(40 + (x+y)%180)
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}

	out, err := (&Advanced{}).Enhance(img, 320, 180, DefaultProfile())
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}

	nrgba, ok := out.(*image.NRGBA)
	if !ok {
		t.Fatalf("Expected *image.NRGBA output, got %T", out)
	}
	for i := 0; i < len(nrgba.Pix); i += 4 {
		r, g, b := nrgba.Pix[i], nrgba.Pix[i+1], nrgba.Pix[i+2]
		if r != g || g != b {
			t.Fatalf("Hue shift at pixel %d: r=%d g=%d b=%d", i/4, r, g, b)
		}
	}
}

func TestEnhanceDeterministic(t *testing.T) {
	img := createDetailImage(283, 159)
	profile := DefaultProfile()

	first, err := (&Advanced{}).Enhance(img, 800, 450, profile)
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	second, err := (&Advanced{}).Enhance(img, 800, 450, profile)
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}

	a := first.(*image.NRGBA)
	b := second.(*image.NRGBA)
	if len(a.Pix) != len(b.Pix) {
		t.Fatal("Pixel buffers differ in length")
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("Pixel byte %d differs between runs", i)
		}
	}
}

func BenchmarkAdvancedEnhance(b *testing.B) {
	img := createDetailImage(283, 159)
	profile := DefaultProfile()
	e := &Advanced{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Enhance(img, 800, 450, profile)
	}
}
