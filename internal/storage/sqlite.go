package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"flowsense/internal/category"
)

// ActivityRecord is one clipped, categorized window event persisted for
// historical reporting.
type ActivityRecord struct {
	ID              string
	Timestamp       time.Time
	App             string
	Title           string
	DurationSeconds float64
	Category        string
}

// SummaryRecord is one completed analysis cycle, flattened for storage.
type SummaryRecord struct {
	ID               string
	CreatedAt        time.Time
	Mode             string
	Period           string
	State            string
	SummaryText      string
	FocusScore       float64
	WorkScore        int
	DistractionScore int
	NeutralScore     int
}

// DailySummary is the per-day rollup, upserted once per day.
type DailySummary struct {
	Date               string // YYYY-MM-DD
	SummaryText        string
	TotalActiveMinutes float64
	TopApps            []string
	WorkPercent        int
	DistractionPercent int
	NeutralPercent     int
	UpdatedAt          time.Time
}

// AppUsage aggregates time per app over a query range.
type AppUsage struct {
	App     string
	Minutes float64
}

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStorage) init() error {
	createCategoriesTable := `
	CREATE TABLE IF NOT EXISTS app_categories (
		app_name TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		subcategory TEXT,
		productivity_score INTEGER NOT NULL DEFAULT 50,
		origin TEXT NOT NULL DEFAULT 'auto',
		updated_at DATETIME NOT NULL
	);
	`

	createActivitiesTable := `
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		app_name TEXT NOT NULL,
		window_title TEXT,
		duration_seconds REAL NOT NULL,
		category TEXT
	);
	`

	createSummariesTable := `
	CREATE TABLE IF NOT EXISTS summaries (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		mode TEXT NOT NULL,
		period TEXT NOT NULL,
		state TEXT NOT NULL,
		summary_text TEXT NOT NULL,
		focus_score REAL NOT NULL,
		work_score INTEGER NOT NULL,
		distraction_score INTEGER NOT NULL,
		neutral_score INTEGER NOT NULL
	);
	`

	createDailySummariesTable := `
	CREATE TABLE IF NOT EXISTS daily_summaries (
		date TEXT PRIMARY KEY,
		summary_text TEXT NOT NULL,
		total_active_minutes REAL NOT NULL,
		top_apps TEXT NOT NULL,
		work_percent INTEGER NOT NULL,
		distraction_percent INTEGER NOT NULL,
		neutral_percent INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	createIndexes := `
	CREATE INDEX IF NOT EXISTS idx_activities_timestamp ON activities(timestamp);
	CREATE INDEX IF NOT EXISTS idx_activities_app ON activities(app_name);
	CREATE INDEX IF NOT EXISTS idx_summaries_created ON summaries(created_at);
	CREATE INDEX IF NOT EXISTS idx_summaries_mode ON summaries(mode);
	`

	if _, err := s.db.Exec(createCategoriesTable); err != nil {
		return fmt.Errorf("failed to create app_categories table: %w", err)
	}

	if _, err := s.db.Exec(createActivitiesTable); err != nil {
		return fmt.Errorf("failed to create activities table: %w", err)
	}

	if _, err := s.db.Exec(createSummariesTable); err != nil {
		return fmt.Errorf("failed to create summaries table: %w", err)
	}

	if _, err := s.db.Exec(createDailySummariesTable); err != nil {
		return fmt.Errorf("failed to create daily_summaries table: %w", err)
	}

	if _, err := s.db.Exec(createIndexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// SaveCategory upserts a category record. The conflict clause refuses to
// replace a user-origin row with an automatic one.
func (s *SQLiteStorage) SaveCategory(rec *category.Record) error {
	query := `
	INSERT INTO app_categories (app_name, category, subcategory, productivity_score, origin, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(app_name) DO UPDATE SET
		category = excluded.category,
		subcategory = excluded.subcategory,
		productivity_score = excluded.productivity_score,
		origin = excluded.origin,
		updated_at = excluded.updated_at
	WHERE app_categories.origin != 'user' OR excluded.origin = 'user'
	`
	_, err := s.db.Exec(query, rec.App, rec.Category, rec.Subcategory, rec.Score, rec.Origin,
		rec.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetCategory(app string) (*category.Record, error) {
	query := `
	SELECT app_name, category, subcategory, productivity_score, origin, updated_at
	FROM app_categories WHERE app_name = ?
	`
	rec, err := scanCategory(s.db.QueryRow(query, app))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStorage) ListCategories() ([]*category.Record, error) {
	query := `
	SELECT app_name, category, subcategory, productivity_score, origin, updated_at
	FROM app_categories ORDER BY app_name
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var records []*category.Record
	for rows.Next() {
		rec, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*category.Record, error) {
	var rec category.Record
	var subcategory sql.NullString
	var updatedAt string
	if err := row.Scan(&rec.App, &rec.Category, &subcategory, &rec.Score, &rec.Origin, &updatedAt); err != nil {
		return nil, err
	}
	rec.Subcategory = subcategory.String
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		rec.UpdatedAt = t
	}
	return &rec, nil
}

// SaveActivities inserts a batch of activity records in one transaction.
func (s *SQLiteStorage) SaveActivities(records []ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT OR IGNORE INTO activities (id, timestamp, app_name, window_title, duration_seconds, category)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare activity insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.ID, rec.Timestamp.Format(time.RFC3339Nano), rec.App,
			rec.Title, rec.DurationSeconds, rec.Category); err != nil {
			return fmt.Errorf("failed to insert activity: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) QueryActivities(start, end time.Time) ([]ActivityRecord, error) {
	query := `
	SELECT id, timestamp, app_name, window_title, duration_seconds, category
	FROM activities WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp
	`
	rows, err := s.db.Query(query, start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var records []ActivityRecord
	for rows.Next() {
		var rec ActivityRecord
		var title, cat sql.NullString
		var timestamp string
		if err := rows.Scan(&rec.ID, &timestamp, &rec.App, &title, &rec.DurationSeconds, &cat); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		rec.Title = title.String
		rec.Category = cat.String
		if t, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
			rec.Timestamp = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// TopApps returns the most used apps by accumulated time in a range.
func (s *SQLiteStorage) TopApps(start, end time.Time, limit int) ([]AppUsage, error) {
	query := `
	SELECT app_name, SUM(duration_seconds) / 60.0 AS minutes
	FROM activities WHERE timestamp >= ? AND timestamp < ?
	GROUP BY app_name ORDER BY minutes DESC LIMIT ?
	`
	rows, err := s.db.Query(query, start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top apps: %w", err)
	}
	defer rows.Close()

	var usages []AppUsage
	for rows.Next() {
		var u AppUsage
		if err := rows.Scan(&u.App, &u.Minutes); err != nil {
			return nil, fmt.Errorf("failed to scan app usage: %w", err)
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}

func (s *SQLiteStorage) SaveSummary(rec *SummaryRecord) error {
	query := `
	INSERT INTO summaries (id, created_at, mode, period, state, summary_text, focus_score, work_score, distraction_score, neutral_score)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, rec.ID, rec.CreatedAt.Format(time.RFC3339Nano), rec.Mode, rec.Period,
		rec.State, rec.SummaryText, rec.FocusScore, rec.WorkScore, rec.DistractionScore, rec.NeutralScore)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) QuerySummaries(start, end time.Time, mode string) ([]*SummaryRecord, error) {
	query := `
	SELECT id, created_at, mode, period, state, summary_text, focus_score, work_score, distraction_score, neutral_score
	FROM summaries WHERE created_at >= ? AND created_at < ?
	`
	args := []any{start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano)}
	if mode != "" {
		query += ` AND mode = ?`
		args = append(args, mode)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var records []*SummaryRecord
	for rows.Next() {
		var rec SummaryRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Mode, &rec.Period, &rec.State, &rec.SummaryText,
			&rec.FocusScore, &rec.WorkScore, &rec.DistractionScore, &rec.NeutralScore); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = t
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStorage) UpsertDailySummary(d *DailySummary) error {
	topApps, err := json.Marshal(d.TopApps)
	if err != nil {
		return fmt.Errorf("failed to marshal top apps: %w", err)
	}

	query := `
	INSERT INTO daily_summaries (date, summary_text, total_active_minutes, top_apps, work_percent, distraction_percent, neutral_percent, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(date) DO UPDATE SET
		summary_text = excluded.summary_text,
		total_active_minutes = excluded.total_active_minutes,
		top_apps = excluded.top_apps,
		work_percent = excluded.work_percent,
		distraction_percent = excluded.distraction_percent,
		neutral_percent = excluded.neutral_percent,
		updated_at = excluded.updated_at
	`
	_, err = s.db.Exec(query, d.Date, d.SummaryText, d.TotalActiveMinutes, string(topApps),
		d.WorkPercent, d.DistractionPercent, d.NeutralPercent, d.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetDailySummary(date string) (*DailySummary, error) {
	query := `
	SELECT date, summary_text, total_active_minutes, top_apps, work_percent, distraction_percent, neutral_percent, updated_at
	FROM daily_summaries WHERE date = ?
	`
	var d DailySummary
	var topApps, updatedAt string
	err := s.db.QueryRow(query, date).Scan(&d.Date, &d.SummaryText, &d.TotalActiveMinutes, &topApps,
		&d.WorkPercent, &d.DistractionPercent, &d.NeutralPercent, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily summary: %w", err)
	}
	if err := json.Unmarshal([]byte(topApps), &d.TopApps); err != nil {
		d.TopApps = nil
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		d.UpdatedAt = t
	}
	return &d, nil
}

// CleanupOldRecords prunes activities and summaries older than the
// retention window. Categories and daily rollups are kept.
func (s *SQLiteStorage) CleanupOldRecords(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Format(time.RFC3339Nano)

	if _, err := s.db.Exec(`DELETE FROM activities WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to cleanup activities: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM summaries WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to cleanup summaries: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
