package domain

import "time"

type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageProcessing StageStatus = "processing"
	StageCompleted  StageStatus = "completed"
	StageError      StageStatus = "error"
)

// EnrichmentStage names one independently failing unit of asynchronous
// enrichment work attached to a clothing item.
type EnrichmentStage string

const (
	StageBackgroundRemoval EnrichmentStage = "background_removal"
	StageCategorization    EnrichmentStage = "categorization"
)

var EnrichmentStages = []EnrichmentStage{StageBackgroundRemoval, StageCategorization}

// StageTask is one unit of enrichment work on the queue. The image key
// travels with the task so the consumer can run the remote call without
// access to the collection store.
type StageTask struct {
	ItemID   string          `json:"item_id"`
	Stage    EnrichmentStage `json:"stage"`
	ImageKey string          `json:"image_key"`
}

// StageResult reports one stage outcome back to the process that owns the
// collection store; only that process writes enrichment fields. Started
// marks the pending -> processing transition. A terminal result carries
// either the stage payload or an error message.
type StageResult struct {
	ItemID         string          `json:"item_id"`
	Stage          EnrichmentStage `json:"stage"`
	Started        bool            `json:"started,omitempty"`
	EnrichedImage  string          `json:"enriched_image,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
}

// StageState tracks a single stage's progress. Status only moves forward:
// pending -> processing -> completed | error. There is no retry path.
type StageState struct {
	Status StageStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
}

type ProcessingState struct {
	BackgroundRemoval StageState `json:"background_removal"`
	Categorization    StageState `json:"categorization"`
}

func NewProcessingState() ProcessingState {
	return ProcessingState{
		BackgroundRemoval: StageState{Status: StagePending},
		Categorization:    StageState{Status: StagePending},
	}
}

// Stage returns a pointer into p for the named stage so callers can update
// one stage without touching the other.
func (p *ProcessingState) Stage(stage EnrichmentStage) *StageState {
	if stage == StageBackgroundRemoval {
		return &p.BackgroundRemoval
	}
	return &p.Categorization
}

type ClothingItem struct {
	ID                string          `json:"id"`
	SourceImage       string          `json:"source_image"`
	EnrichedImage     string          `json:"enriched_image,omitempty"`
	Category          string          `json:"category,omitempty"`
	Subcategory       string          `json:"subcategory,omitempty"`
	Tags              []string        `json:"tags,omitempty"`
	Colors            []string        `json:"colors,omitempty"`
	Seasons           []string        `json:"seasons,omitempty"`
	Occasions         []string        `json:"occasions,omitempty"`
	Brand             string          `json:"brand,omitempty"`
	PurchaseYearMonth string          `json:"purchase_year_month,omitempty"`
	Price             float64         `json:"price,omitempty"`
	Processing        ProcessingState `json:"processing"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (c ClothingItem) EntityID() string { return c.ID }

func (c *ClothingItem) Touch(t time.Time) { c.UpdatedAt = t }

// DisplayImage is the enriched cutout when background removal completed,
// otherwise the original capture.
func (c ClothingItem) DisplayImage() string {
	if c.EnrichedImage != "" {
		return c.EnrichedImage
	}
	return c.SourceImage
}

// EnrichmentInFlight reports whether categorization is still running, which
// locks the classifier-owned fields against user edits.
func (c ClothingItem) EnrichmentInFlight() bool {
	return c.Processing.Categorization.Status == StageProcessing
}

// Classification is the best-effort result of the remote categorization
// service for one garment image.
type Classification struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Colors      []string `json:"colors"`
	Seasons     []string `json:"seasons"`
	Occasions   []string `json:"occasions"`
}
