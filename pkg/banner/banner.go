// Package banner turns an arbitrary screenshot into a Steam-spec promotional
// banner: content-aware region selection, quality-corrected upscaling, then
// composition with an optional logo overlay.
//
// A single generation is a synchronous, CPU-bound pipeline with no shared
// state; independent calls are safe to run concurrently from the caller
// side. Capability absence (content-aware analysis, advanced filtering)
// never fails a request: the pipeline degrades to deterministic fallbacks
// and records the degradation on the Result.
package banner

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/jamesthegreati/WishlistOps-sub001/pkg/compose"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/cropper"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/enhance"
)

// Request carries everything one banner generation needs. Logo is optional
// raw image bytes.
type Request struct {
	Width        int
	Height       int
	Mode         cropper.Mode
	Profile      enhance.Profile
	Logo         []byte
	LogoPosition compose.Position
	LogoScale    float64
	LogoMargin   int
}

// DefaultRequest targets the Steam community announcement banner size.
func DefaultRequest() Request {
	spec := compose.DefaultSpec()
	return Request{
		Width:        spec.Width,
		Height:       spec.Height,
		Mode:         cropper.ModeSmart,
		Profile:      enhance.DefaultProfile(),
		LogoPosition: spec.Position,
		LogoScale:    spec.LogoScale,
		LogoMargin:   spec.Margin,
	}
}

// Result is the only artifact callers persist. Region is the source
// rectangle that became the background, in source-image coordinates.
type Result struct {
	PNG             []byte       `json:"-"`
	Width           int          `json:"width"`
	Height          int          `json:"height"`
	Mode            cropper.Mode `json:"-"`
	Region          cropper.Rect `json:"region"`
	CropFallback    bool         `json:"crop_fallback"`
	EnhanceFallback bool         `json:"enhance_fallback"`
	LogoApplied     bool         `json:"logo_applied"`
}

// Generator runs the three-stage compositor. Both capabilities are resolved
// once at startup and threaded in; the generator itself holds no mutable
// state.
type Generator struct {
	selector *cropper.Selector
	enhancer enhance.Enhancer
}

// NewGenerator wires a generator from resolved capabilities.
func NewGenerator(selector *cropper.Selector, enhancer enhance.Enhancer) *Generator {
	return &Generator{selector: selector, enhancer: enhancer}
}

// Generate produces the final banner from raw screenshot bytes. Decode and
// dimension errors are fatal to this request; capability degradation is
// recorded on the Result instead.
func (g *Generator) Generate(src []byte, req Request) (*Result, error) {
	if req.Width < 1 || req.Height < 1 {
		return nil, fmt.Errorf("invalid target size %dx%d", req.Width, req.Height)
	}

	img, err := Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}

	targetRatio := float64(req.Width) / float64(req.Height)
	region, cropFallback, err := g.selector.Select(img, targetRatio, req.Mode)
	if err != nil {
		return nil, err
	}
	resolvedMode := req.Mode
	if cropFallback {
		resolvedMode = cropper.ModeCenter
	}

	cropped := imaging.Crop(img, region.ImageRect())
	resizeNeeded := region.Width != req.Width || region.Height != req.Height

	background, err := g.enhancer.Enhance(cropped, req.Width, req.Height, req.Profile)
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}

	var logo image.Image
	if len(req.Logo) > 0 {
		logo, err = Decode(req.Logo)
		if err != nil {
			return nil, fmt.Errorf("decode logo: %w", err)
		}
	}

	spec := compose.Spec{
		Width:     req.Width,
		Height:    req.Height,
		LogoScale: req.LogoScale,
		Margin:    req.LogoMargin,
		Position:  req.LogoPosition,
	}
	final, logoApplied, err := compose.Assemble(background, logo, spec)
	if err != nil {
		return nil, err
	}

	data, err := EncodePNG(final)
	if err != nil {
		return nil, err
	}

	return &Result{
		PNG:             data,
		Width:           req.Width,
		Height:          req.Height,
		Mode:            resolvedMode,
		Region:          region,
		CropFallback:    cropFallback,
		EnhanceFallback: g.enhancer.Fallback() && resizeNeeded,
		LogoApplied:     logoApplied,
	}, nil
}
