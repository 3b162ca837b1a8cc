// Package id provides unique identifier generation for jobs.
package id

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Generate creates a new unique job ID.
// Format: vid_<12 hex chars>
// Example: vid_3f8a91c04b7d
func Generate() string {
	u := uuid.New()
	return "vid_" + hex.EncodeToString(u[:6])
}
