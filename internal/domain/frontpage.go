package domain

import (
	"time"

	"github.com/google/uuid"
)

// FrontPage holds the per-region front page settings.
// CoverPhoto is the blob store key of the cover image, empty when unset.
type FrontPage struct {
	ID         uuid.UUID `json:"id"`
	RegionID   uuid.UUID `json:"region_id"`
	CoverPhoto string    `json:"cover_photo,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
