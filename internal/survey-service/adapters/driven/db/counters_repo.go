package db

import (
	"context"
	"fmt"
	"time"

	"transit-mapper/internal/survey-service/core/ports"
)

type CountersRepo struct {
	db *DB
}

func NewCountersRepo(db *DB) ports.ICountersRepo {
	return &CountersRepo{
		db: db,
	}
}

// One upsert-increment statement per mint: the row update is atomic, so
// two concurrent callers can never observe the same sequence value. The
// per-day counter resets whenever the stored day differs from today.
const nextSeqQuery = `
	INSERT INTO counters (name, seq, day, day_seq)
	VALUES ($1, $2, $3::date, $2)
	ON CONFLICT (name) DO UPDATE SET
		seq = counters.seq + $2,
		day_seq = CASE WHEN counters.day = $3::date THEN counters.day_seq + $2 ELSE $2 END,
		day = $3::date
	RETURNING seq`

func (cr *CountersRepo) NextNumber(ctx context.Context, name, prefix string) (string, error) {
	numbers, err := cr.NextNumbers(ctx, name, prefix, 1)
	if err != nil {
		return "", err
	}
	return numbers[0], nil
}

func (cr *CountersRepo) NextNumbers(ctx context.Context, name, prefix string, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("counter %s: invalid batch size %d", name, n)
	}

	today := time.Now().UTC()
	day := today.Format("2006-01-02")
	stamp := today.Format("20060102")

	var last int64
	row := cr.db.pool.QueryRow(ctx, nextSeqQuery, name, int64(n), day)
	if err := row.Scan(&last); err != nil {
		return nil, fmt.Errorf("increment counter %s: %w", name, err)
	}

	numbers := make([]string, 0, n)
	for seq := last - int64(n) + 1; seq <= last; seq++ {
		numbers = append(numbers, fmt.Sprintf("%s%s_%03d", prefix, stamp, seq))
	}
	return numbers, nil
}
