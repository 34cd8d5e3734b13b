// Package domain contains the core data types for the wiki tags service.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Region is the scoping boundary for tags, tag sets and front pages.
// Every tag slug is unique only within its region.
type Region struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
