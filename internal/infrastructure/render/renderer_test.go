package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/ports"
)

func solidPNG(t *testing.T, w, h int, c color.Color) *bytes.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func decodePNG(t *testing.T, blob []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return img
}

func TestFlattenProducesCanvasSizedPNG(t *testing.T) {
	r := New(260)
	blob, err := r.Flatten(context.Background(), 400, 600, []ports.RenderLayer{
		{Image: solidPNG(t, 10, 10, color.RGBA{R: 255, A: 255}), Transform: domain.Transform{X: 200, Y: 300, Scale: 1}},
	})
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	img := decodePNG(t, blob)
	if got := img.Bounds(); got.Dx() != 400 || got.Dy() != 600 {
		t.Fatalf("snapshot bounds = %v", got)
	}
	if _, _, _, a := img.At(200, 300).RGBA(); a == 0 {
		t.Fatal("layer center pixel is transparent")
	}
}

func TestFlattenPaintsInGivenOrder(t *testing.T) {
	r := New(100)
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	blob, err := r.Flatten(context.Background(), 200, 200, []ports.RenderLayer{
		{Image: solidPNG(t, 10, 10, red), Transform: domain.Transform{X: 100, Y: 100, Scale: 1}},
		{Image: solidPNG(t, 10, 10, blue), Transform: domain.Transform{X: 100, Y: 100, Scale: 1}},
	})
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	img := decodePNG(t, blob)
	rr, _, bb, _ := img.At(100, 100).RGBA()
	if bb == 0 || rr != 0 {
		t.Fatalf("later layer does not cover earlier one: r=%d b=%d", rr, bb)
	}
}

func TestFlattenRejectsBadInput(t *testing.T) {
	r := New(260)
	if _, err := r.Flatten(context.Background(), 0, 100, nil); err == nil {
		t.Fatal("expected size error")
	}
	if _, err := r.Flatten(context.Background(), 100, 100, []ports.RenderLayer{
		{Image: bytes.NewReader([]byte("not an image")), Transform: domain.Transform{Scale: 1}},
	}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFlattenEmptyCanvas(t *testing.T) {
	r := New(260)
	blob, err := r.Flatten(context.Background(), 50, 50, nil)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	img := decodePNG(t, blob)
	if got := img.Bounds(); got.Dx() != 50 || got.Dy() != 50 {
		t.Fatalf("empty snapshot bounds = %v", got)
	}
}
