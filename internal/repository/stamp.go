package repository

import (
	"time"

	"github.com/rs/xid"

	"github.com/sakif/intellicrawl/internal/model"
)

// Stamp prepares dev for a first write: it fills an empty ID with a new
// xid, sets CreatedAt when zero, and sets UpdatedAt to now. Every store's
// Create calls it so ids and timestamps look the same whichever tier
// accepted the write.
func Stamp(dev *model.Developer, now time.Time) {
	if dev.ID == "" {
		dev.ID = xid.New().String()
	}
	now = now.UTC()
	if dev.CreatedAt.IsZero() {
		dev.CreatedAt = now
	}
	dev.UpdatedAt = now
}
