package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ErrInvalidDimensions is returned when the background handed to Assemble
// does not match the spec's target size. Dimension correctness is the prior
// stages' responsibility; the assembler never silently corrects it.
var ErrInvalidDimensions = errors.New("background does not match target dimensions")

// Position names the canvas anchor for the logo overlay.
type Position int

const (
	TopLeft Position = iota
	TopRight
	BottomLeft
	BottomRight
	Center
)

var positionNames = []string{"top-left", "top-right", "bottom-left", "bottom-right", "center"}

func (p Position) String() string {
	if int(p) >= 0 && int(p) < len(positionNames) {
		return positionNames[p]
	}
	return fmt.Sprintf("position(%d)", int(p))
}

// ParsePosition converts a config string into a Position.
func ParsePosition(s string) (Position, error) {
	for i, name := range positionNames {
		if name == s {
			return Position(i), nil
		}
	}
	return BottomRight, fmt.Errorf("unknown logo position %q", s)
}

// Spec describes the final canvas and the optional logo placement.
type Spec struct {
	Width     int
	Height    int
	LogoScale float64
	Margin    int
	Position  Position
}

// DefaultSpec returns the Steam banner canvas with a modest corner logo.
func DefaultSpec() Spec {
	return Spec{
		Width:     800,
		Height:    450,
		LogoScale: 0.2,
		Margin:    16,
		Position:  BottomRight,
	}
}

// Assemble places the background and optional logo onto the final canvas.
// The background must already be exactly spec-sized. The output is always
// opaque NRGBA; input transparency does not survive into the banner.
func Assemble(background image.Image, logo image.Image, spec Spec) (*image.NRGBA, bool, error) {
	if spec.Width < 1 || spec.Height < 1 {
		return nil, false, fmt.Errorf("invalid canvas size %dx%d", spec.Width, spec.Height)
	}
	b := background.Bounds()
	if b.Dx() != spec.Width || b.Dy() != spec.Height {
		return nil, false, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrInvalidDimensions, b.Dx(), b.Dy(), spec.Width, spec.Height)
	}

	canvas := imaging.New(spec.Width, spec.Height, color.NRGBA{0, 0, 0, 255})
	canvas = imaging.Overlay(canvas, background, image.Pt(0, 0), 1.0)

	logoApplied := false
	if logo != nil {
		scaled := scaleLogo(logo, spec)
		canvas = imaging.Overlay(canvas, scaled, logoOrigin(scaled, spec), 1.0)
		logoApplied = true
	}

	flattenAlpha(canvas)
	return canvas, logoApplied, nil
}

// scaleLogo fits the logo within LogoScale of the canvas's shorter
// dimension, preserving its aspect ratio. A logo already inside the budget
// is left at its native size.
func scaleLogo(logo image.Image, spec Spec) image.Image {
	short := spec.Width
	if spec.Height < short {
		short = spec.Height
	}
	maxDim := int(spec.LogoScale * float64(short))
	if maxDim < 1 {
		maxDim = 1
	}
	lb := logo.Bounds()
	if lb.Dx() <= maxDim && lb.Dy() <= maxDim {
		return logo
	}
	return imaging.Fit(logo, maxDim, maxDim, imaging.Lanczos)
}

// logoOrigin computes the paste point for the scaled logo at the anchored
// position plus margin.
func logoOrigin(logo image.Image, spec Spec) image.Point {
	lw, lh := logo.Bounds().Dx(), logo.Bounds().Dy()
	m := spec.Margin

	switch spec.Position {
	case TopLeft:
		return image.Pt(m, m)
	case TopRight:
		return image.Pt(spec.Width-m-lw, m)
	case BottomLeft:
		return image.Pt(m, spec.Height-m-lh)
	case Center:
		return image.Pt((spec.Width-lw)/2, (spec.Height-lh)/2)
	default: // BottomRight
		return image.Pt(spec.Width-m-lw, spec.Height-m-lh)
	}
}

// flattenAlpha forces every pixel opaque. Overlay keeps the canvas alpha at
// 255 already, but the output format contract is explicit.
func flattenAlpha(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
}
