package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"WikiSeer/internal/domain/models"
	domrepo "WikiSeer/internal/domain/repository"
	applogger "WikiSeer/pkg/logger"
)

// CHSeriesStore implements SeriesStore backed by ClickHouse. The page_views
// table is a ReplacingMergeTree keyed by (title, date); reads use FINAL so the
// last write for a key wins, matching upsert semantics.
type CHSeriesStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSeriesStore(db *sql.DB, table string) *CHSeriesStore {
	return &CHSeriesStore{db: db, table: table}
}

// SetLogger injects a structured logger.
func (s *CHSeriesStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSeriesStore) GetSeries(ctx context.Context, title string) (models.TimeSeries, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT date, page_views
        FROM %s FINAL
        WHERE title = ?
        ORDER BY date ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, title)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_series query error",
				applogger.String("title", title),
				applogger.Error(err),
			)
		}
		return models.TimeSeries{}, fmt.Errorf("get series: %w", err)
	}
	defer rows.Close()

	points := make([]models.SeriesPoint, 0, 128)
	for rows.Next() {
		var p models.SeriesPoint
		if err := rows.Scan(&p.Date, &p.Views); err != nil {
			return models.TimeSeries{}, fmt.Errorf("scan point: %w", err)
		}
		p.Title = title
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return models.TimeSeries{}, fmt.Errorf("rows: %w", err)
	}
	if len(points) == 0 {
		return models.TimeSeries{}, domrepo.ErrNotFound
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_series ok",
			applogger.String("title", title),
			applogger.Int("rows", len(points)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return models.TimeSeries{Title: title, Points: points}, nil
}

func (s *CHSeriesStore) ListTitles(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT title FROM %s ORDER BY title ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse list_titles query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(titles) == 0 {
		return nil, domrepo.ErrNotFound
	}
	return titles, nil
}

func (s *CHSeriesStore) Upsert(ctx context.Context, points []models.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}
	// Multi-row VALUES insert; the ReplacingMergeTree engine resolves
	// duplicate (title, date) keys by keeping the newest ingested_at.
	const chunkSize = 2000
	now := time.Now().UTC()
	for start := 0; start < len(points); start += chunkSize {
		end := start + chunkSize
		if end > len(points) {
			end = len(points)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, p := range points[start:end] {
			if p.Title == "" || p.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, p.Title, p.Date, p.Views, now)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (title, date, page_views, ingested_at) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("upsert points: %w", err)
		}
	}
	return nil
}

func (s *CHSeriesStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSeriesStore) Close() error {
	return nil // Pool managed by pkg
}

var _ domrepo.SeriesStore = (*CHSeriesStore)(nil)
