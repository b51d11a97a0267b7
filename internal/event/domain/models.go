package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
	EventStatusCancelled EventStatus = "CANCELLED"
	EventStatusCompleted EventStatus = "COMPLETED"
)

// Event metadata is owned by the out-of-scope CRUD collaborator; this core
// reads status, start time and organizer, and flips status on host cancel.
type Event struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrganizerID snowflake.ID `gorm:"not null;index" json:"organizer_id"`
	Title       string       `gorm:"not null" json:"title"`
	Status      EventStatus  `gorm:"type:text;not null;default:DRAFT" json:"status"`
	StartTime   *time.Time   `json:"start_time"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Event) TableName() string { return "events" }

var (
	ErrNotFound     = errors.New("event_not_found")
	ErrNotPublished = errors.New("event_not_published")
	ErrStarted      = errors.New("event_already_started")
	ErrNotOwner     = errors.New("event_not_owner")
	ErrFinalState   = errors.New("event_already_finalized")
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Event, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Event, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, status EventStatus, now time.Time) error
}
