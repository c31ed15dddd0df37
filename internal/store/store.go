// Package store provides SQLite-backed persistence for petalpath.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store provides access to the petalpath SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		board TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS actions (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		type TEXT NOT NULL,
		direction TEXT,
		ok INTEGER NOT NULL,
		message TEXT,
		source TEXT NOT NULL,
		strategy TEXT,
		created_at DATETIME NOT NULL,
		UNIQUE (game_id, seq),
		FOREIGN KEY (game_id) REFERENCES games(id)
	);

	CREATE TABLE IF NOT EXISTS solve_jobs (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL,
		strategy TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		claimed_by TEXT,
		claimed_at DATETIME,
		actions INTEGER NOT NULL DEFAULT 0,
		outcome TEXT,
		error TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (game_id) REFERENCES games(id)
	);

	CREATE TABLE IF NOT EXISTS locks (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL UNIQUE,
		holder_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		game_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
	CREATE INDEX IF NOT EXISTS idx_actions_game_id ON actions(game_id);
	CREATE INDEX IF NOT EXISTS idx_solve_jobs_status ON solve_jobs(status);
	CREATE INDEX IF NOT EXISTS idx_decisions_game_id ON decisions(game_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Game Operations ---

// ErrVersionConflict indicates the game changed since it was read.
var ErrVersionConflict = errors.New("game was modified concurrently")

// CreateGame inserts a new game with an empty action history.
func (s *Store) CreateGame(board models.Board, status grid.Status) (*models.Game, error) {
	data, err := json.Marshal(board)
	if err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}
	now := time.Now().UTC()
	game := &models.Game{
		ID:        uuid.New().String(),
		Status:    status,
		Board:     board,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(
		`INSERT INTO games (id, status, board, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		game.ID, game.Status, string(data), game.Version, game.CreatedAt, game.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}
	return game, nil
}

// GetGame retrieves a game by ID. It returns nil when the game does not exist.
func (s *Store) GetGame(id string) (*models.Game, error) {
	game := &models.Game{}
	var board string

	err := s.db.QueryRow(
		`SELECT id, status, board, version, created_at, updated_at FROM games WHERE id = ?`,
		id,
	).Scan(&game.ID, &game.Status, &board, &game.Version, &game.CreatedAt, &game.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query game: %w", err)
	}
	if err := json.Unmarshal([]byte(board), &game.Board); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	return game, nil
}

// ListGames returns all games, optionally filtered by status.
func (s *Store) ListGames(status string) ([]models.Game, error) {
	query := `SELECT id, status, board, version, created_at, updated_at FROM games`
	var args []interface{}

	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		var game models.Game
		var board string
		if err := rows.Scan(&game.ID, &game.Status, &board, &game.Version, &game.CreatedAt, &game.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		if err := json.Unmarshal([]byte(board), &game.Board); err != nil {
			return nil, fmt.Errorf("decode board %s: %w", game.ID, err)
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// CommitGame stores the new board and appends entries to the game's
// history in one transaction. The write only succeeds if the stored
// version still equals version; the returned game carries the next one.
func (s *Store) CommitGame(id string, version int, board models.Board, status grid.Status, entries []models.ActionEntry) (*models.Game, error) {
	data, err := json.Marshal(board)
	if err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.Exec(
		`UPDATE games SET status = ?, board = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		status, string(data), now, id, version,
	)
	if err != nil {
		return nil, fmt.Errorf("update game: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrVersionConflict
	}

	var last sql.NullInt64
	if err := tx.QueryRow(`SELECT MAX(seq) FROM actions WHERE game_id = ?`, id).Scan(&last); err != nil {
		return nil, fmt.Errorf("query last seq: %w", err)
	}
	seq := int(last.Int64)

	for i := range entries {
		seq++
		e := &entries[i]
		e.ID = uuid.New().String()
		e.GameID = id
		e.Seq = seq
		e.CreatedAt = now
		_, err := tx.Exec(
			`INSERT INTO actions (id, game_id, seq, type, direction, ok, message, source, strategy, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.GameID, e.Seq, e.Type, string(e.Direction), e.OK, e.Message, e.Source, e.Strategy, e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert action %d: %w", e.Seq, err)
		}
	}

	var game models.Game
	var stored string
	err = tx.QueryRow(
		`SELECT id, status, board, version, created_at, updated_at FROM games WHERE id = ?`,
		id,
	).Scan(&game.ID, &game.Status, &stored, &game.Version, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("reload game: %w", err)
	}
	game.Board = board

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &game, nil
}

// ListActions returns a game's action history in order.
func (s *Store) ListActions(gameID string) ([]models.ActionEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, game_id, seq, type, direction, ok, message, source, strategy, created_at FROM actions WHERE game_id = ? ORDER BY seq`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var entries []models.ActionEntry
	for rows.Next() {
		var e models.ActionEntry
		var direction, message, strategy sql.NullString
		if err := rows.Scan(&e.ID, &e.GameID, &e.Seq, &e.Type, &direction, &e.OK, &message, &e.Source, &strategy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		e.Direction = grid.Direction(direction.String)
		e.Message = message.String
		e.Strategy = strategy.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Solve Job Operations ---

// ErrJobNotClaimable indicates the job cannot be claimed (not found or wrong status).
var ErrJobNotClaimable = errors.New("job not found or not claimable")

const jobColumns = `id, game_id, strategy, status, claimed_by, claimed_at, actions, outcome, error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.SolveJob, error) {
	var job models.SolveJob
	var claimedBy, outcome, jobErr sql.NullString
	var claimedAt sql.NullTime
	err := row.Scan(&job.ID, &job.GameID, &job.Strategy, &job.Status, &claimedBy, &claimedAt,
		&job.Actions, &outcome, &jobErr, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	job.ClaimedBy = claimedBy.String
	if claimedAt.Valid {
		job.ClaimedAt = &claimedAt.Time
	}
	job.Outcome = outcome.String
	job.Error = jobErr.String
	return &job, nil
}

// CreateJob queues a solve job.
func (s *Store) CreateJob(gameID, strategy string) (*models.SolveJob, error) {
	now := time.Now().UTC()
	job := &models.SolveJob{
		ID:        uuid.New().String(),
		GameID:    gameID,
		Strategy:  strategy,
		Status:    models.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO solve_jobs (id, game_id, strategy, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, job.GameID, job.Strategy, job.Status, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// GetJob retrieves a job by ID. It returns nil when the job does not exist.
func (s *Store) GetJob(id string) (*models.SolveJob, error) {
	job, err := scanJob(s.db.QueryRow(`SELECT `+jobColumns+` FROM solve_jobs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs, optionally filtered by status, oldest first.
func (s *Store) ListJobs(status string) ([]models.SolveJob, error) {
	query := `SELECT ` + jobColumns + ` FROM solve_jobs`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.SolveJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// AtomicClaimJob claims the oldest pending job for holderID, optionally
// restricted to the given strategies. It returns nil when nothing is pending.
func (s *Store) AtomicClaimJob(holderID string, strategies []string) (*models.SolveJob, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + jobColumns + ` FROM solve_jobs WHERE status = ?`
	args := []interface{}{models.JobStatusPending}
	if len(strategies) > 0 {
		query += ` AND strategy IN (?` + strings.Repeat(", ?", len(strategies)-1) + `)`
		for _, st := range strategies {
			args = append(args, st)
		}
	}
	query += ` ORDER BY created_at LIMIT 1`

	job, err := scanJob(tx.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query pending job: %w", err)
	}

	now := time.Now().UTC()
	result, err := tx.Exec(
		`UPDATE solve_jobs SET status = ?, claimed_by = ?, claimed_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		models.JobStatusClaimed, holderID, now, now, job.ID, models.JobStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("update job status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Claimed by another worker between our read and update
		return nil, ErrJobNotClaimable
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	job.Status = models.JobStatusClaimed
	job.ClaimedBy = holderID
	job.ClaimedAt = &now
	job.UpdatedAt = now
	return job, nil
}

// UpdateJobStatus updates the status of a job.
func (s *Store) UpdateJobStatus(id string, status models.JobStatus) error {
	_, err := s.db.Exec(
		`UPDATE solve_jobs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	return err
}

// FinishJob records the outcome of a job. A non-empty errMsg marks it failed.
func (s *Store) FinishJob(id string, actions int, outcome, errMsg string) error {
	status := models.JobStatusCompleted
	if errMsg != "" {
		status = models.JobStatusFailed
	}
	_, err := s.db.Exec(
		`UPDATE solve_jobs SET status = ?, actions = ?, outcome = ?, error = ?, updated_at = ? WHERE id = ?`,
		status, actions, outcome, errMsg, time.Now().UTC(), id,
	)
	return err
}

// ReleaseJob puts a claimed job back in the queue.
func (s *Store) ReleaseJob(id string) error {
	_, err := s.db.Exec(
		`UPDATE solve_jobs SET status = ?, claimed_by = NULL, claimed_at = NULL, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		models.JobStatusPending, time.Now().UTC(), id, models.JobStatusClaimed, models.JobStatusRunning,
	)
	return err
}

// --- Lock Operations ---

// ErrResourceLocked indicates the resource is already locked by another holder.
var ErrResourceLocked = errors.New("resource already locked")

// AcquireLock attempts to acquire a lock on a resource atomically.
// Expired locks are cleaned up first.
func (s *Store) AcquireLock(resourceID, holderID string, ttl time.Duration) (*models.Lock, error) {
	tx, err := s.db.BeginTx(context.Background(), &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	_, err = tx.Exec(`DELETE FROM locks WHERE resource_id = ? AND expires_at <= ?`, resourceID, now)
	if err != nil {
		return nil, fmt.Errorf("clean expired locks: %w", err)
	}

	var existingHolder string
	err = tx.QueryRow(
		`SELECT holder_id FROM locks WHERE resource_id = ? AND expires_at > ?`,
		resourceID, now,
	).Scan(&existingHolder)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("check existing lock: %w", err)
	}
	if err != sql.ErrNoRows {
		return nil, ErrResourceLocked
	}

	lock := &models.Lock{
		ID:         uuid.New().String(),
		ResourceID: resourceID,
		HolderID:   holderID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}

	_, err = tx.Exec(
		`INSERT INTO locks (id, resource_id, holder_id, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		lock.ID, lock.ResourceID, lock.HolderID, lock.CreatedAt, lock.ExpiresAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint") {
			return nil, ErrResourceLocked
		}
		return nil, fmt.Errorf("insert lock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return lock, nil
}

// GetLock retrieves a lock by resource ID if it exists and is not expired.
func (s *Store) GetLock(resourceID string) (*models.Lock, error) {
	lock := &models.Lock{}
	err := s.db.QueryRow(
		`SELECT id, resource_id, holder_id, created_at, expires_at FROM locks WHERE resource_id = ? AND expires_at > ?`,
		resourceID, time.Now().UTC(),
	).Scan(&lock.ID, &lock.ResourceID, &lock.HolderID, &lock.CreatedAt, &lock.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query lock: %w", err)
	}
	return lock, nil
}

// ReleaseLock releases a lock.
func (s *Store) ReleaseLock(lockID string) error {
	_, err := s.db.Exec(`DELETE FROM locks WHERE id = ?`, lockID)
	return err
}

// --- Decision Operations ---

// WriteDecision writes an audit record.
func (s *Store) WriteDecision(action, inputsHash, outcome, gameID, details string) (*models.DecisionRecord, error) {
	rec := &models.DecisionRecord{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		GameID:     gameID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO decisions (id, action, inputs_hash, outcome, game_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Action, rec.InputsHash, rec.Outcome, rec.GameID, rec.Details, rec.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert decision: %w", err)
	}
	return rec, nil
}

// ListDecisions returns audit records, newest first, optionally for one game.
func (s *Store) ListDecisions(gameID string) ([]models.DecisionRecord, error) {
	query := `SELECT id, action, inputs_hash, outcome, game_id, details, timestamp FROM decisions`
	var args []interface{}
	if gameID != "" {
		query += ` WHERE game_id = ?`
		args = append(args, gameID)
	}
	query += ` ORDER BY timestamp DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []models.DecisionRecord
	for rows.Next() {
		var rec models.DecisionRecord
		var game, details sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.InputsHash, &rec.Outcome, &game, &details, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		rec.GameID = game.String
		rec.Details = details.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
