package trends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/healthhub-platform/internal/dataapi"
	"github.com/wolfman30/healthhub-platform/internal/domain"
)

// RecordSource yields appointment records with dates in [start, end).
// Sources may return records outside the range; Aggregate ignores them. A
// source that could only read part of its data returns what it read together
// with an error wrapping ErrTruncated.
type RecordSource interface {
	Name() string
	Records(ctx context.Context, start, end time.Time) ([]domain.AppointmentRecord, error)
}

// AppointmentLister is the data API call APISource pages through.
type AppointmentLister interface {
	ListAppointmentRecords(ctx context.Context, page, limit int) (*dataapi.Page[domain.AppointmentRecord], error)
}

// ErrTruncated reports that the listing had more pages than the source is
// allowed to read. The records returned alongside it are a partial set.
var ErrTruncated = errors.New("trends: appointment listing truncated")

const (
	defaultAPIPageSize = 100
	defaultAPIMaxPages = 20
)

// APISource reads records from the admin appointments listing.
type APISource struct {
	lister   AppointmentLister
	pageSize int
	maxPages int
}

// NewAPISource creates an APISource. Non-positive sizes use defaults.
func NewAPISource(lister AppointmentLister, pageSize, maxPages int) *APISource {
	if pageSize <= 0 {
		pageSize = defaultAPIPageSize
	}
	if maxPages <= 0 {
		maxPages = defaultAPIMaxPages
	}
	return &APISource{lister: lister, pageSize: pageSize, maxPages: maxPages}
}

func (s *APISource) Name() string { return "api" }

// Records walks pages until the server's last page or the page cap. Hitting
// the cap with pages left returns the partial records and ErrTruncated.
func (s *APISource) Records(ctx context.Context, start, end time.Time) ([]domain.AppointmentRecord, error) {
	var out []domain.AppointmentRecord
	for page := 1; ; page++ {
		res, err := s.lister.ListAppointmentRecords(ctx, page, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("trends: list appointments page %d: %w", page, err)
		}
		for _, rec := range res.Items {
			if !rec.Date.Before(start) && rec.Date.Before(end) {
				out = append(out, rec)
			}
		}
		if page >= res.Pagination.Pages || len(res.Items) == 0 {
			break
		}
		if page >= s.maxPages {
			return out, fmt.Errorf("%w: read %d of %d pages", ErrTruncated, page, res.Pagination.Pages)
		}
	}
	return out, nil
}

type trendsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads records straight from the appointments table.
type PostgresSource struct {
	db trendsDB
}

func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	if pool == nil {
		panic("trends: pgx pool required for postgres source")
	}
	return &PostgresSource{db: pool}
}

func NewPostgresSourceWithDB(db trendsDB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Records(ctx context.Context, start, end time.Time) ([]domain.AppointmentRecord, error) {
	query := `
		SELECT id::text, scheduled_at, COALESCE(status, '')
		FROM appointments
		WHERE scheduled_at >= $1
		  AND scheduled_at < $2
		ORDER BY scheduled_at
	`

	rows, err := s.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("trends: query appointments: %w", err)
	}
	defer rows.Close()

	var out []domain.AppointmentRecord
	for rows.Next() {
		var (
			id     string
			at     time.Time
			status string
		)
		if err := rows.Scan(&id, &at, &status); err != nil {
			return nil, fmt.Errorf("trends: scan appointment: %w", err)
		}
		out = append(out, domain.AppointmentRecord{
			ID:     id,
			Date:   at.UTC(),
			Status: domain.ParseAppointmentStatus(status),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trends: iterate appointments: %w", err)
	}
	return out, nil
}
