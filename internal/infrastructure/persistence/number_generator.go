package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SequenceNumberGenerator allocates write-off numbers from the highest
// sequence already stored for the day. It is a fallback for deployments
// without Redis: concurrent allocations can collide, which the unique index
// on write_off_no catches and the caller retries.
type SequenceNumberGenerator struct {
	repo   *GormWriteOffRepository
	prefix string
}

// NewSequenceNumberGenerator creates a DB-backed number generator.
// prefix is the document number prefix, e.g. "WO".
func NewSequenceNumberGenerator(db *gorm.DB, prefix string) *SequenceNumberGenerator {
	return &SequenceNumberGenerator{
		repo:   NewGormWriteOffRepository(db),
		prefix: prefix,
	}
}

// Next returns the next write-off number for the given date,
// e.g. "WO-20260101-0001"
func (g *SequenceNumberGenerator) Next(ctx context.Context, date time.Time) (string, error) {
	day := date.Format("20060102")
	seq, err := g.repo.MaxSequenceForDay(ctx, g.prefix, day)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", g.prefix, day, seq+1), nil
}
