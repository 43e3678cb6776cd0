// Package canvas implements the outfit composition engine: a working copy
// of one outfit's placed garment layers with transform mutation, bounds
// clamping, selection-driven stacking, and gesture arbitration.
package canvas

import (
	"sort"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

const (
	DefaultItemSize = 260.0
	DefaultMinScale = 0.2
	DefaultMaxScale = 3.0
)

type Config struct {
	Width    float64
	Height   float64
	ItemSize float64
	MinScale float64
	MaxScale float64
}

func (c Config) withDefaults() Config {
	if c.ItemSize <= 0 {
		c.ItemSize = DefaultItemSize
	}
	if c.MinScale <= 0 {
		c.MinScale = DefaultMinScale
	}
	if c.MaxScale <= c.MinScale {
		c.MaxScale = DefaultMaxScale
	}
	return c
}

// Canvas edits one outfit's item list. It holds only a working copy;
// nothing reaches the outfit store until the caller commits.
type Canvas struct {
	cfg      Config
	items    []domain.OutfitItem
	selected int
	nextZ    int
}

// New starts an empty composition.
func New(cfg Config) *Canvas {
	return &Canvas{cfg: cfg.withDefaults(), selected: -1, nextZ: 1}
}

// Edit starts from an existing outfit, seeding the bring-to-front counter
// above every stored stacking key.
func Edit(cfg Config, outfit domain.Outfit) *Canvas {
	c := New(cfg)
	c.items = make([]domain.OutfitItem, len(outfit.Items))
	copy(c.items, outfit.Items)
	c.nextZ = outfit.MaxZIndex() + 1
	return c
}

// Place adds a garment layer on top of the stack.
func (c *Canvas) Place(itemID string, t domain.Transform) {
	c.items = append(c.items, domain.OutfitItem{
		ItemID:    itemID,
		Transform: c.clamp(t),
		ZIndex:    c.nextZ,
	})
	c.nextZ++
}

// Select marks the layer selected and brings it to the visual front. The
// stacking counter only ever grows; deletes leave gaps, which is fine
// because order is the only property that matters.
func (c *Canvas) Select(index int) error {
	if index < 0 || index >= len(c.items) {
		return domain.ErrNotFound
	}
	c.selected = index
	c.items[index].ZIndex = c.nextZ
	c.nextZ++
	return nil
}

// Deselect returns to idle without touching stacking order.
func (c *Canvas) Deselect() {
	c.selected = -1
}

// Selected returns the selected index, or -1.
func (c *Canvas) Selected() int {
	return c.selected
}

// UpdateTransform replaces a layer's transform, re-clamping position with
// the new scale so a scale change cannot push the layer off-canvas.
func (c *Canvas) UpdateTransform(index int, t domain.Transform) error {
	if index < 0 || index >= len(c.items) {
		return domain.ErrNotFound
	}
	c.items[index].Transform = c.clamp(t)
	return nil
}

// Delete removes the layer from the working list.
func (c *Canvas) Delete(index int) error {
	if index < 0 || index >= len(c.items) {
		return domain.ErrNotFound
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	switch {
	case c.selected == index:
		c.selected = -1
	case c.selected > index:
		c.selected--
	}
	return nil
}

// Items returns the working list in placement order.
func (c *Canvas) Items() []domain.OutfitItem {
	out := make([]domain.OutfitItem, len(c.items))
	copy(out, c.items)
	return out
}

// RenderOrder returns the layers sorted by ascending stacking key; higher
// keys paint later and therefore on top.
func (c *Canvas) RenderOrder() []domain.OutfitItem {
	out := c.Items()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// Commit hands the working list back for an outfit save.
func (c *Canvas) Commit() []domain.OutfitItem {
	return c.Items()
}

// clamp bounds scale to the configured range and then constrains the item
// center so the scaled bounding box stays reachable: the center may not
// leave [-half, canvas-half] on either axis.
func (c *Canvas) clamp(t domain.Transform) domain.Transform {
	if t.Scale < c.cfg.MinScale {
		t.Scale = c.cfg.MinScale
	}
	if t.Scale > c.cfg.MaxScale {
		t.Scale = c.cfg.MaxScale
	}

	half := c.cfg.ItemSize * t.Scale / 2
	t.X = clampAxis(t.X, -half, c.cfg.Width-half)
	t.Y = clampAxis(t.Y, -half, c.cfg.Height-half)
	// Rotation wraps freely and stays as given.
	return t
}

func clampAxis(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
