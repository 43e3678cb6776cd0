package domain

import "time"

type TryOnType string

const (
	TryOnSingle   TryOnType = "single"
	TryOnDiscover TryOnType = "discover"
	TryOnOutfit   TryOnType = "outfit"
)

// TryOnHistoryLimit caps retained try-on records; the oldest record is
// evicted when an insert pushes the history past the cap.
const TryOnHistoryLimit = 100

type TryOnRecord struct {
	ID             string    `json:"id"`
	Type           TryOnType `json:"type"`
	ClothingItemID string    `json:"clothing_item_id,omitempty"`
	OutfitID       string    `json:"outfit_id,omitempty"`
	GarmentImage   string    `json:"garment_image"`
	PersonImage    string    `json:"person_image"`
	ResultImage    string    `json:"result_image"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (r TryOnRecord) EntityID() string { return r.ID }

func (r *TryOnRecord) Touch(t time.Time) { r.UpdatedAt = t }

// TryOnRequest carries everything a compositing attempt needs. GarmentImage
// and PersonImage are both required; item/outfit references are optional
// provenance depending on Type.
type TryOnRequest struct {
	Type           TryOnType `json:"type"`
	ClothingItemID string    `json:"clothing_item_id,omitempty"`
	OutfitID       string    `json:"outfit_id,omitempty"`
	GarmentImage   string    `json:"garment_image"`
	PersonImage    string    `json:"person_image"`
}
