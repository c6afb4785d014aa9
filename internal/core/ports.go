package core

import (
	"context"
	"time"
)

// ImageType selects the vendor visualization format.
type ImageType int

const (
	ImagePNG  ImageType = 3
	ImageSVG  ImageType = 5
	ImageGLTF ImageType = 11
)

// Valid reports whether the image type is one the vendor renders.
func (t ImageType) Valid() bool {
	switch t {
	case ImagePNG, ImageSVG, ImageGLTF:
		return true
	}
	return false
}

// ImageRequest describes one visualization render.
type ImageRequest struct {
	Type   ImageType `json:"imageType"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
}

// Image is a decoded visualization payload.
type Image struct {
	ContentType string
	Data        []byte
}

// Backend is the port to the vendor CAD service. Each method is a single
// network round trip; transport details live in the adapter.
type Backend interface {
	// CreateModel instantiates a vendor model from a catalog code and
	// returns its GUID. Concurrent calls for the same code are deduplicated
	// by the adapter.
	CreateModel(ctx context.Context, modelCode string) (string, error)

	// GetUIDefinition fetches the full option tree for a model instance.
	GetUIDefinition(ctx context.Context, modelGUID string) (*UIDefinition, error)

	// SetOption pushes one option value. Best effort from the session's
	// point of view: a failure must not block the definition refresh.
	SetOption(ctx context.Context, modelGUID, code, value string) error

	// GetDimensions fetches the full dimension map.
	GetDimensions(ctx context.Context, modelGUID string) (Dimensions, error)

	// SetDimension sets one dimension and returns the authoritative
	// post-cascade dimension map.
	SetDimension(ctx context.Context, modelGUID, key string, value float64) (Dimensions, error)

	// RenderImage renders the current model state.
	RenderImage(ctx context.Context, modelGUID string, req ImageRequest) (*Image, error)
}

// SavedSummary is the listing shape for a stored configuration.
type SavedSummary struct {
	Name              string    `json:"name"`
	ModelCode         string    `json:"modelCode"`
	CompatibilityHash string    `json:"compatibilityHash"`
	Timestamp         time.Time `json:"timestamp"`
}

// ConfigStore persists named configuration exports. Stores keep export
// blobs only; live session state never touches a store.
type ConfigStore interface {
	Save(ctx context.Context, cfg *ExportedConfiguration) error
	Load(ctx context.Context, name string) (*ExportedConfiguration, error)
	List(ctx context.Context) ([]SavedSummary, error)
	Delete(ctx context.Context, name string) error
}
