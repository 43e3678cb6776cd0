// Package render flattens placed outfit layers into a single PNG. Layers
// arrive already sorted by stacking order; each is scaled to the canvas
// item size, then transformed and painted about its center point.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/ports"
)

type Renderer struct {
	itemSize float64
}

func New(itemSize float64) *Renderer {
	if itemSize <= 0 {
		itemSize = 260
	}
	return &Renderer{itemSize: itemSize}
}

func (r *Renderer) Flatten(ctx context.Context, width, height int, layers []ports.RenderLayer) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}

	dc := gg.NewContext(width, height)
	for i, layer := range layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, _, err := image.Decode(layer.Image)
		if err != nil {
			return nil, fmt.Errorf("decode layer %d: %w", i, err)
		}

		tr := layer.Transform
		scale := tr.Scale
		if scale <= 0 {
			scale = 1
		}
		// A layer's base footprint is itemSize along its longer edge; the
		// gesture scale multiplies on top of that.
		bounds := img.Bounds()
		longest := bounds.Dx()
		if bounds.Dy() > longest {
			longest = bounds.Dy()
		}
		if longest == 0 {
			continue
		}
		total := r.itemSize / float64(longest) * scale

		dc.Push()
		dc.RotateAbout(tr.Rotation, tr.X, tr.Y)
		dc.ScaleAbout(total, total, tr.X, tr.Y)
		dc.DrawImageAnchored(img, int(tr.X), int(tr.Y), 0.5, 0.5)
		dc.Pop()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
