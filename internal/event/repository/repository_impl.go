package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clubhive/clubhive/internal/event/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Event, error) {
	var item domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT id, organizer_id, title, status, start_time, created_at, updated_at
		 FROM events
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Event, error) {
	var item domain.Event
	err := tx.WithContext(ctx).Raw(
		`SELECT id, organizer_id, title, status, start_time, created_at, updated_at
		 FROM events
		 WHERE id = ?
		 FOR UPDATE`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) UpdateStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, status domain.EventStatus, now time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE events
		 SET status = ?, updated_at = ?
		 WHERE id = ?`,
		status,
		now,
		id,
	).Error
}
