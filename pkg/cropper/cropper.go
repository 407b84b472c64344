package cropper

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/jamesthegreati/WishlistOps-sub001/pkg/vision"
)

// ErrImageTooSmall is returned when a source image cannot satisfy the
// requested aspect ratio without upscaling. The selector only crops.
var ErrImageTooSmall = errors.New("source image too small for target aspect ratio")

// Rect is an integer pixel rectangle, always fully contained in the source
// image it was computed from.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRect builds a Rect and enforces containment within bounds.
func NewRect(x, y, width, height int, bounds image.Rectangle) (Rect, error) {
	if width < 1 || height < 1 {
		return Rect{}, fmt.Errorf("rect %dx%d has empty extent", width, height)
	}
	if x < 0 || y < 0 || x+width > bounds.Dx() || y+height > bounds.Dy() {
		return Rect{}, fmt.Errorf("rect (%d,%d %dx%d) exceeds source bounds %dx%d",
			x, y, width, height, bounds.Dx(), bounds.Dy())
	}
	return Rect{X: x, Y: y, Width: width, Height: height}, nil
}

// ImageRect converts the Rect to an image.Rectangle in source coordinates.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// AspectRatio returns width/height.
func (r Rect) AspectRatio() float64 {
	return float64(r.Width) / float64(r.Height)
}

// Mode selects the rule that picks which sub-rectangle of a source image
// becomes the banner background.
type Mode int

const (
	ModeSmart Mode = iota
	ModeCenter
	ModeTop
	ModeBottom
	ModeLeft
	ModeRight
	ModeThirds
)

var modeNames = []string{"smart", "center", "top", "bottom", "left", "right", "thirds"}

func (m Mode) String() string {
	if int(m) >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode converts a config string into a Mode.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return ModeSmart, fmt.Errorf("unknown crop mode %q", s)
}

// Selector computes the crop rectangle for a target aspect ratio. The
// analyzer is resolved once at startup; a nil analyzer degrades Smart mode
// to Center and flags the result as a fallback.
type Selector struct {
	analyzer vision.Analyzer
	step     int
}

// NewSelector creates a Selector. analyzer may be nil when the content-aware
// capability is unavailable.
func NewSelector(analyzer vision.Analyzer) *Selector {
	return &Selector{analyzer: analyzer, step: 16}
}

// SetStep overrides the sliding-window search step in pixels.
func (s *Selector) SetStep(step int) {
	if step > 0 {
		s.step = step
	}
}

// Select returns the sub-rectangle of img to keep for the given target
// aspect ratio and mode. The second return value reports whether Smart mode
// fell back to Center because the analysis capability was unavailable.
func (s *Selector) Select(img image.Image, targetRatio float64, mode Mode) (Rect, bool, error) {
	if targetRatio <= 0 {
		return Rect{}, false, fmt.Errorf("target aspect ratio must be positive, got %g", targetRatio)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 1 || height < 1 {
		return Rect{}, false, fmt.Errorf("%w: source is %dx%d", ErrImageTooSmall, width, height)
	}

	// Maximal rectangle of the target ratio that fits the source.
	cropWidth, cropHeight := width, height
	currentRatio := float64(width) / float64(height)
	if targetRatio > currentRatio {
		cropHeight = int(math.Round(float64(width) / targetRatio))
	} else if targetRatio < currentRatio {
		cropWidth = int(math.Round(float64(height) * targetRatio))
	}
	if cropWidth < 1 || cropHeight < 1 {
		return Rect{}, false, fmt.Errorf("%w: %dx%d cannot hold ratio %.4f", ErrImageTooSmall, width, height, targetRatio)
	}

	// Residual freedom is along whichever axis the ratio did not pin.
	vertical := cropWidth == width
	free := width - cropWidth
	if vertical {
		free = height - cropHeight
	}

	offset := 0
	fallback := false
	switch mode {
	case ModeCenter:
		offset = free / 2
	case ModeTop, ModeLeft:
		offset = 0
	case ModeBottom, ModeRight:
		offset = free
	case ModeThirds:
		// Window centered on the one-third line of the source.
		srcLen, winLen := width, cropWidth
		if vertical {
			srcLen, winLen = height, cropHeight
		}
		offset = clamp(srcLen/3-winLen/2, 0, free)
	case ModeSmart:
		offset, fallback = s.smartOffset(img, cropWidth, cropHeight, free, vertical)
	default:
		return Rect{}, false, fmt.Errorf("unknown crop mode %v", mode)
	}

	x, y := offset, 0
	if vertical {
		x, y = 0, offset
	}
	rect, err := NewRect(x, y, cropWidth, cropHeight, bounds)
	if err != nil {
		return Rect{}, false, err
	}
	return rect, fallback, nil
}

// smartOffset slides the crop window along the free axis and keeps the
// offset with the highest heatmap mass. Ties break toward the center
// position. Capability absence or analysis failure degrades to the center
// offset and reports a fallback.
func (s *Selector) smartOffset(img image.Image, cropWidth, cropHeight, free int, vertical bool) (int, bool) {
	center := free / 2
	if s.analyzer == nil {
		return center, true
	}
	if free == 0 {
		return 0, false
	}

	heat, err := s.analyzer.Heatmap(img)
	if err != nil {
		return center, true
	}
	sat := newIntegral(heat)

	best := 0
	bestScore := math.Inf(-1)
	for off := 0; ; off += s.step {
		if off > free {
			off = free
		}
		var score float64
		if vertical {
			score = sat.sum(0, off, cropWidth, cropHeight)
		} else {
			score = sat.sum(off, 0, cropWidth, cropHeight)
		}
		if score > bestScore || (score == bestScore && abs(off-center) < abs(best-center)) {
			best, bestScore = off, score
		}
		if off == free {
			break
		}
	}
	return best, false
}

// integral is a summed-area table over a heatmap, so window sums stay
// constant-time during the slide.
type integral struct {
	sat [][]float64
}

func newIntegral(grid [][]float64) *integral {
	height := len(grid)
	width := 0
	if height > 0 {
		width = len(grid[0])
	}
	sat := make([][]float64, height+1)
	sat[0] = make([]float64, width+1)
	for y := 1; y <= height; y++ {
		sat[y] = make([]float64, width+1)
		for x := 1; x <= width; x++ {
			sat[y][x] = grid[y-1][x-1] + sat[y-1][x] + sat[y][x-1] - sat[y-1][x-1]
		}
	}
	return &integral{sat: sat}
}

func (i *integral) sum(x, y, width, height int) float64 {
	maxY := len(i.sat) - 1
	maxX := len(i.sat[0]) - 1
	x1 := clamp(x+width, 0, maxX)
	y1 := clamp(y+height, 0, maxY)
	x = clamp(x, 0, maxX)
	y = clamp(y, 0, maxY)
	return i.sat[y1][x1] - i.sat[y][x1] - i.sat[y1][x] + i.sat[y][x]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
