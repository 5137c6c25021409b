package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// SequenceRepository hands out gapless, monotonically increasing codes for a
// named sequence. Codes are never reused, even when the entity they were
// assigned to is later cancelled.
type SequenceRepository interface {
	NextCode(ctx context.Context, nombre, prefijo string) (string, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// NextCode atomically increments the counter (creating it at 0 if absent) and
// formats the new value as "<prefijo>-0001". A single upsert-returning
// statement leaves no read-then-write window, so concurrent callers can never
// observe the same value. Padding is 4 digits; larger values just grow.
func (r *sequenceRepository) NextCode(ctx context.Context, nombre, prefijo string) (string, error) {
	var seq int64
	err := GetDB(ctx, r.db).Raw(`
		INSERT INTO sequence_counters (nombre, seq) VALUES (?, 1)
		ON CONFLICT (nombre) DO UPDATE SET seq = sequence_counters.seq + 1
		RETURNING seq
	`, nombre).Scan(&seq).Error
	if err != nil {
		return "", fmt.Errorf("failed to advance sequence %s: %w", nombre, err)
	}
	return fmt.Sprintf("%s-%04d", prefijo, seq), nil
}
