package domain

import "time"

// Transform is the 2D placement of one garment layer on the outfit canvas:
// translation of the item center, uniform scale, rotation in radians.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}

// OutfitItem references a clothing item placed on the canvas. ItemID is a
// foreign key into the clothing collection and is not owned by the outfit;
// a reference to a since-deleted item is tolerated and skipped at render.
type OutfitItem struct {
	ItemID    string    `json:"item_id"`
	Transform Transform `json:"transform"`
	ZIndex    int       `json:"z_index"`
}

type Outfit struct {
	ID            string       `json:"id"`
	ComposedImage string       `json:"composed_image,omitempty"`
	Items         []OutfitItem `json:"items"`
	Tags          []string     `json:"tags,omitempty"`
	Seasons       []string     `json:"seasons,omitempty"`
	Occasions     []string     `json:"occasions,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (o Outfit) EntityID() string { return o.ID }

func (o *Outfit) Touch(t time.Time) { o.UpdatedAt = t }

// OutfitDraft is a canvas composition submitted for saving, before the
// composed snapshot has been rendered and an id assigned.
type OutfitDraft struct {
	Items     []OutfitItem `json:"items"`
	Tags      []string     `json:"tags,omitempty"`
	Seasons   []string     `json:"seasons,omitempty"`
	Occasions []string     `json:"occasions,omitempty"`
}

// MaxZIndex returns the highest stacking key currently in use, so editors
// can seed their bring-to-front counter above it.
func (o Outfit) MaxZIndex() int {
	max := 0
	for _, it := range o.Items {
		if it.ZIndex > max {
			max = it.ZIndex
		}
	}
	return max
}
