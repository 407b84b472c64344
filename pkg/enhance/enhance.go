package enhance

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Profile bundles the quality-correction parameters applied after upscaling.
// It is passed through the pipeline unchanged.
type Profile struct {
	SharpenAmount float64
	SharpenSigma  float64
	DenoiseRadius int
	DenoiseSigma  float64
	ClipLimit     float64
	TileGrid      int
}

// DefaultProfile returns parameters tuned for the 800x450 Steam banner
// target.
func DefaultProfile() Profile {
	return Profile{
		SharpenAmount: 0.6,
		SharpenSigma:  2.0,
		DenoiseRadius: 2,
		DenoiseSigma:  25,
		ClipLimit:     2.0,
		TileGrid:      8,
	}
}

// Enhancer resizes an image to the target size with quality correction.
type Enhancer interface {
	Enhance(img image.Image, width, height int, profile Profile) (image.Image, error)
	// Fallback reports whether this enhancer is the degraded plain-resize
	// path.
	Fallback() bool
}

// Detect resolves the enhancement capability once at startup. The degraded
// variant only performs the high-quality resize.
func Detect(disabled bool) Enhancer {
	if disabled {
		return &Basic{}
	}
	return &Advanced{}
}

// Advanced applies the full correction chain: Lanczos resize, unsharp mask,
// edge-preserving denoise, then local adaptive contrast. The order matters;
// each step counteracts artifacts introduced by the previous one.
type Advanced struct{}

func (e *Advanced) Fallback() bool { return false }

func (e *Advanced) Enhance(img image.Image, width, height int, profile Profile) (image.Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return img, nil
	}

	resized := imaging.Resize(img, width, height, imaging.Lanczos)
	sharpened := unsharpMask(resized, profile.SharpenAmount, profile.SharpenSigma)
	denoised := bilateral(sharpened, profile.DenoiseRadius, profile.DenoiseSigma)
	return claheLuminance(denoised, profile.ClipLimit, profile.TileGrid), nil
}

// Basic is the fallback path: plain Lanczos resize, no filtering.
type Basic struct{}

func (e *Basic) Fallback() bool { return true }

func (e *Basic) Enhance(img image.Image, width, height int, profile Profile) (image.Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return img, nil
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// unsharpMask recovers perceived sharpness lost to interpolation: subtract a
// Gaussian-blurred copy, scale the difference by amount, add it back. All
// arithmetic in float64 before the final clamp to 8 bits.
func unsharpMask(img *image.NRGBA, amount, sigma float64) *image.NRGBA {
	if amount <= 0 || sigma <= 0 {
		return img
	}
	blurred := imaging.Blur(img, sigma)
	out := imaging.Clone(img)

	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			orig := float64(img.Pix[i+c])
			blur := float64(blurred.Pix[i+c])
			out.Pix[i+c] = clampByte(orig + amount*(orig-blur))
		}
	}
	return out
}

// bilateral smooths flat regions while preserving edges: each pixel becomes
// a weighted mean of its neighborhood, with weights falling off by both
// spatial distance and channel-value distance. Channels are processed
// independently.
func bilateral(img *image.NRGBA, radius int, rangeSigma float64) *image.NRGBA {
	if radius < 1 || rangeSigma <= 0 {
		return img
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := imaging.Clone(img)

	spatialSigma := float64(radius)
	spatial := make([][]float64, 2*radius+1)
	for dy := -radius; dy <= radius; dy++ {
		spatial[dy+radius] = make([]float64, 2*radius+1)
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[dy+radius][dx+radius] = math.Exp(-d2 / (2 * spatialSigma * spatialSigma))
		}
	}

	twoRange2 := 2 * rangeSigma * rangeSigma
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			base := y*img.Stride + x*4
			for c := 0; c < 3; c++ {
				center := float64(img.Pix[base+c])
				var sum, weight float64
				for dy := -radius; dy <= radius; dy++ {
					ny := y + dy
					if ny < 0 || ny >= height {
						continue
					}
					for dx := -radius; dx <= radius; dx++ {
						nx := x + dx
						if nx < 0 || nx >= width {
							continue
						}
						v := float64(img.Pix[ny*img.Stride+nx*4+c])
						diff := v - center
						w := spatial[dy+radius][dx+radius] * math.Exp(-diff*diff/twoRange2)
						sum += v * w
						weight += w
					}
				}
				out.Pix[base+c] = clampByte(sum / weight)
			}
		}
	}
	return out
}

// claheLuminance applies contrast-limited adaptive histogram equalization on
// the luminance channel only, then rescales RGB by the luminance ratio so
// hue does not shift. Tile mappings are blended bilinearly to avoid visible
// tile seams.
func claheLuminance(img *image.NRGBA, clipLimit float64, tiles int) *image.NRGBA {
	if clipLimit <= 0 || tiles < 1 {
		return img
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < tiles || height < tiles {
		return img
	}

	// Luminance plane, 0-255.
	luma := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*img.Stride + x*4
			luma[y*width+x] = 0.299*float64(img.Pix[i]) + 0.587*float64(img.Pix[i+1]) + 0.114*float64(img.Pix[i+2])
		}
	}

	// Per-tile clipped histograms and equalization mappings.
	tileW := (width + tiles - 1) / tiles
	tileH := (height + tiles - 1) / tiles
	mappings := make([][]float64, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := minInt(x0+tileW, width), minInt(y0+tileH, height)
			mappings[ty*tiles+tx] = tileMapping(luma, width, x0, y0, x1, y1, clipLimit)
		}
	}

	out := imaging.Clone(img)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			oldY := luma[y*width+x]
			newY := interpolateTiles(mappings, tiles, tileW, tileH, width, height, x, y, oldY)

			scale := 1.0
			if oldY > 0.5 {
				scale = newY / oldY
			}
			i := y*img.Stride + x*4
			for c := 0; c < 3; c++ {
				out.Pix[i+c] = clampByte(float64(img.Pix[i+c]) * scale)
			}
		}
	}
	return out
}

// tileMapping builds the clipped-histogram equalization curve for one tile.
func tileMapping(luma []float64, stride, x0, y0, x1, y1 int, clipLimit float64) []float64 {
	var hist [256]float64
	count := float64((x1 - x0) * (y1 - y0))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			bin := int(luma[y*stride+x])
			if bin > 255 {
				bin = 255
			}
			hist[bin]++
		}
	}

	// Clip and redistribute the excess uniformly.
	limit := clipLimit * count / 256
	var excess float64
	for i := range hist {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	bonus := excess / 256
	for i := range hist {
		hist[i] += bonus
	}

	mapping := make([]float64, 256)
	var cdf float64
	for i := range hist {
		cdf += hist[i]
		mapping[i] = 255 * cdf / count
	}
	return mapping
}

// interpolateTiles blends the equalization curves of the four tiles
// surrounding (x, y).
func interpolateTiles(mappings [][]float64, tiles, tileW, tileH, width, height, x, y int, value float64) float64 {
	fx := (float64(x) - float64(tileW)/2) / float64(tileW)
	fy := (float64(y) - float64(tileH)/2) / float64(tileH)

	tx0 := int(math.Floor(fx))
	ty0 := int(math.Floor(fy))
	wx := fx - float64(tx0)
	wy := fy - float64(ty0)

	tx1 := clampTile(tx0+1, tiles)
	ty1 := clampTile(ty0+1, tiles)
	tx0 = clampTile(tx0, tiles)
	ty0 = clampTile(ty0, tiles)

	bin := int(value)
	if bin > 255 {
		bin = 255
	}
	top := (1-wx)*mappings[ty0*tiles+tx0][bin] + wx*mappings[ty0*tiles+tx1][bin]
	bottom := (1-wx)*mappings[ty1*tiles+tx0][bin] + wx*mappings[ty1*tiles+tx1][bin]
	return (1-wy)*top + wy*bottom
}

func clampTile(t, tiles int) int {
	if t < 0 {
		return 0
	}
	if t >= tiles {
		return tiles - 1
	}
	return t
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
