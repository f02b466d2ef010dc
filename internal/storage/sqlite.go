// Package storage provides SQLite-based persistence for episode results and
// save slots. Uses the pure-Go modernc.org/sqlite driver to avoid CGO
// dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/lunar-lander/internal/games/lander"
)

// ErrNoSave is returned when a save slot does not exist.
var ErrNoSave = errors.New("storage: no saved state")

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// EpisodeEntry is one recorded landing.
type EpisodeEntry struct {
	ID        int64
	SessionID string
	lander.EpisodeResult
}

// SaveInfo describes a save slot without loading it.
type SaveInfo struct {
	Slot       string
	Difficulty lander.Difficulty
	WinsInARow int
	SavedAt    time.Time
}

// DifficultyStats aggregates episodes played at one difficulty.
type DifficultyStats struct {
	Difficulty  lander.Difficulty
	Episodes    int
	Wins        int
	Losses      int
	BestStreak  int
	AvgFuelLeft float64 // over won episodes
	LastPlayed  time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS episodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			difficulty INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			wins_in_a_row INTEGER NOT NULL DEFAULT 0,
			fuel_left REAL NOT NULL DEFAULT 0,
			speed REAL NOT NULL DEFAULT 0,
			heading REAL NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_episodes_session ON episodes(session_id);
		CREATE INDEX IF NOT EXISTS idx_episodes_difficulty ON episodes(difficulty);

		CREATE TABLE IF NOT EXISTS saved_states (
			slot TEXT PRIMARY KEY,
			difficulty INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			dx REAL NOT NULL,
			dy REAL NOT NULL,
			heading REAL NOT NULL,
			fuel REAL NOT NULL,
			goal_x INTEGER NOT NULL,
			goal_width INTEGER NOT NULL,
			goal_speed INTEGER NOT NULL,
			goal_angle INTEGER NOT NULL,
			lander_width INTEGER NOT NULL,
			lander_height INTEGER NOT NULL,
			wins_in_a_row INTEGER NOT NULL DEFAULT 0,
			saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveEpisode records a classified landing.
// Returns the ID of the inserted record.
func (s *Store) SaveEpisode(sessionID string, ep lander.EpisodeResult) (int64, error) {
	at := ep.At
	if at.IsZero() {
		at = time.Now()
	}

	result, err := s.db.Exec(
		`INSERT INTO episodes
		 (session_id, difficulty, outcome, reason, wins_in_a_row, fuel_left, speed, heading, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		int(ep.Difficulty),
		string(ep.Result),
		string(ep.Reason),
		ep.WinsInARow,
		ep.FuelLeft,
		ep.Speed,
		ep.Heading,
		ep.Duration.Milliseconds(),
		formatTime(at),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save episode: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecordEpisode lets the session record landings without knowing about SQL.
func (s *Store) RecordEpisode(sessionID string, ep lander.EpisodeResult) error {
	_, err := s.SaveEpisode(sessionID, ep)
	return err
}

// RecentEpisodes returns the newest episodes first.
func (s *Store) RecentEpisodes(limit int) ([]EpisodeEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, difficulty, outcome, reason, wins_in_a_row,
		        fuel_left, speed, heading, duration_ms, created_at
		 FROM episodes
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query episodes: %w", err)
	}
	defer rows.Close()

	var entries []EpisodeEntry
	for rows.Next() {
		var (
			e          EpisodeEntry
			difficulty int
			outcome    string
			reason     string
			durationMS int64
			createdAt  any
		)
		if err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&difficulty,
			&outcome,
			&reason,
			&e.WinsInARow,
			&e.FuelLeft,
			&e.Speed,
			&e.Heading,
			&durationMS,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Difficulty = lander.Difficulty(difficulty)
		e.Result = lander.Result(outcome)
		e.Reason = lander.Reason(reason)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.At = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// Stats aggregates all recorded episodes per difficulty, ordered by
// difficulty value.
func (s *Store) Stats() ([]DifficultyStats, error) {
	rows, err := s.db.Query(
		`SELECT difficulty,
		        COUNT(*),
		        SUM(CASE WHEN outcome != 'lose' THEN 1 ELSE 0 END),
		        SUM(CASE WHEN outcome = 'lose' THEN 1 ELSE 0 END),
		        MAX(wins_in_a_row),
		        COALESCE(AVG(CASE WHEN outcome != 'lose' THEN fuel_left END), 0),
		        MAX(created_at)
		 FROM episodes
		 GROUP BY difficulty
		 ORDER BY difficulty`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	defer rows.Close()

	var stats []DifficultyStats
	for rows.Next() {
		var (
			st         DifficultyStats
			difficulty int
			lastPlayed any
		)
		if err := rows.Scan(&difficulty, &st.Episodes, &st.Wins, &st.Losses, &st.BestStreak, &st.AvgFuelLeft, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.Difficulty = lander.Difficulty(difficulty)
		st.LastPlayed = parseTime(lastPlayed)
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// SaveState writes p into slot, replacing what was there.
func (s *Store) SaveState(slot string, p lander.PersistedState) error {
	if slot == "" {
		return fmt.Errorf("storage: empty save slot name")
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO saved_states
		 (slot, difficulty, x, y, dx, dy, heading, fuel, goal_x, goal_width,
		  goal_speed, goal_angle, lander_width, lander_height, wins_in_a_row, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		slot,
		int(p.Difficulty),
		p.X, p.Y, p.DX, p.DY,
		p.Heading,
		p.Fuel,
		p.GoalX, p.GoalWidth, p.GoalSpeed, p.GoalAngle,
		p.LanderWidth, p.LanderHeight,
		p.WinsInARow,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save state %q: %w", slot, err)
	}
	return nil
}

// LoadState reads a save slot. Returns ErrNoSave if the slot is empty.
func (s *Store) LoadState(slot string) (lander.PersistedState, error) {
	var (
		p          lander.PersistedState
		difficulty int
	)
	err := s.db.QueryRow(
		`SELECT difficulty, x, y, dx, dy, heading, fuel, goal_x, goal_width,
		        goal_speed, goal_angle, lander_width, lander_height, wins_in_a_row
		 FROM saved_states
		 WHERE slot = ?`,
		slot,
	).Scan(
		&difficulty,
		&p.X, &p.Y, &p.DX, &p.DY,
		&p.Heading,
		&p.Fuel,
		&p.GoalX, &p.GoalWidth, &p.GoalSpeed, &p.GoalAngle,
		&p.LanderWidth, &p.LanderHeight,
		&p.WinsInARow,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return lander.PersistedState{}, fmt.Errorf("%w: slot %q", ErrNoSave, slot)
	}
	if err != nil {
		return lander.PersistedState{}, fmt.Errorf("storage: cannot load state %q: %w", slot, err)
	}
	p.Difficulty = lander.Difficulty(difficulty)
	return p, nil
}

// ListSaves returns every save slot, most recently saved first.
func (s *Store) ListSaves() ([]SaveInfo, error) {
	rows, err := s.db.Query(
		`SELECT slot, difficulty, wins_in_a_row, saved_at
		 FROM saved_states
		 ORDER BY saved_at DESC, slot`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot list saves: %w", err)
	}
	defer rows.Close()

	var saves []SaveInfo
	for rows.Next() {
		var (
			info       SaveInfo
			difficulty int
			savedAt    any
		)
		if err := rows.Scan(&info.Slot, &difficulty, &info.WinsInARow, &savedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		info.Difficulty = lander.Difficulty(difficulty)
		info.SavedAt = parseTime(savedAt)
		saves = append(saves, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return saves, nil
}

// DeleteSave removes a save slot. Returns ErrNoSave if it did not exist.
func (s *Store) DeleteSave(slot string) error {
	res, err := s.db.Exec("DELETE FROM saved_states WHERE slot = ?", slot)
	if err != nil {
		return fmt.Errorf("storage: cannot delete save %q: %w", slot, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: cannot delete save %q: %w", slot, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: slot %q", ErrNoSave, slot)
	}
	return nil
}

const timeLayout = "2006-01-02 15:04:05.000"

// formatTime stores times as sortable UTC text.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime handles both time.Time and string, depending on how the driver
// hands the column back.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{timeLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}
