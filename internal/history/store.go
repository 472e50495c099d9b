// Package history keeps a DuckDB record of finished builds and their logs.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keyforge/backend/internal/models"
	"github.com/marcboeker/go-duckdb"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned when no build matches an ID.
var ErrNotFound = errors.New("build not found")

const schema = `
CREATE TABLE IF NOT EXISTS builds (
	id            VARCHAR PRIMARY KEY,
	keyboard      VARCHAR NOT NULL,
	keymap        VARCHAR NOT NULL,
	output_dir    VARCHAR,
	status        VARCHAR NOT NULL,
	exit_code     INTEGER,
	artifact_path VARCHAR,
	artifact_size BIGINT,
	reason        VARCHAR,
	problems      BLOB,
	started_at    TIMESTAMP NOT NULL,
	finished_at   TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS build_logs (
	build_id VARCHAR NOT NULL,
	line_no  INTEGER NOT NULL,
	line     VARCHAR NOT NULL
);
`

const buildColumns = `id, keyboard, keymap, output_dir, status, exit_code, artifact_path,
	artifact_size, reason, problems, started_at, finished_at`

// Store is a build history backed by a DuckDB file. It implements build.Recorder.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// Open opens or creates the history database at dbPath. An empty path opens
// an in-memory database.
func Open(dbPath string) (*Store, error) {
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a finished build, replacing any earlier record with the same ID.
func (s *Store) Record(ctx context.Context, rec *models.BuildRecord) error {
	problems, err := msgpack.Marshal(rec.Problems)
	if err != nil {
		return fmt.Errorf("encoding problems: %w", err)
	}
	var exitCode sql.NullInt32
	if rec.ExitCode != nil {
		exitCode = sql.NullInt32{Int32: int32(*rec.ExitCode), Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM build_logs WHERE build_id = ?", rec.ID); err != nil {
		return fmt.Errorf("clearing logs: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO builds (`+buildColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Keyboard, rec.Keymap, rec.OutputDir, string(rec.Status), exitCode,
		rec.ArtifactPath, rec.ArtifactSize, rec.Reason, problems,
		rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting build: %w", err)
	}

	if len(rec.Log) == 0 {
		return nil
	}
	return s.appendLogs(ctx, rec.ID, rec.Log)
}

// appendLogs writes log lines with the native Appender API.
func (s *Store) appendLogs(ctx context.Context, id string, lines []string) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "build_logs")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for i, line := range lines {
			if err := appender.AppendRow(id, int32(i), line); err != nil {
				return fmt.Errorf("failed to append line %d: %w", i, err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}
	return nil
}

// Get returns the build with the given ID. A unique ID prefix, such as the
// eight characters shown in log lines, is accepted too.
func (s *Store) Get(ctx context.Context, id string) (*models.BuildRecord, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+buildColumns+` FROM builds
		WHERE id = ? OR starts_with(id, ?) ORDER BY id LIMIT 2`, id, id)
	if err != nil {
		return nil, fmt.Errorf("querying build: %w", err)
	}
	defer rows.Close()

	var found []*models.BuildRecord
	for rows.Next() {
		rec, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		if rec.ID == id {
			return rec, nil
		}
		found = append(found, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("build ID prefix %q is ambiguous", id)
}

// List returns up to limit builds, most recent first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]*models.BuildRecord, error) {
	query := `SELECT ` + buildColumns + ` FROM builds ORDER BY started_at DESC, id`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying builds: %w", err)
	}
	defer rows.Close()

	var list []*models.BuildRecord
	for rows.Next() {
		rec, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// Logs returns the captured compiler output of a build, in order.
func (s *Store) Logs(ctx context.Context, id string) ([]string, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT line FROM build_logs WHERE build_id = ? ORDER BY line_no", rec.ID)
	if err != nil {
		return nil, fmt.Errorf("querying logs: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Prune removes builds that finished before now minus maxAge, with their logs.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM build_logs WHERE build_id IN
		(SELECT id FROM builds WHERE finished_at < ?)`, cutoff); err != nil {
		return 0, fmt.Errorf("pruning logs: %w", err)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM builds WHERE finished_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning builds: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBuild(row scanner) (*models.BuildRecord, error) {
	var (
		rec          models.BuildRecord
		status       string
		outputDir    sql.NullString
		exitCode     sql.NullInt32
		artifactPath sql.NullString
		artifactSize sql.NullInt64
		reason       sql.NullString
		problems     []byte
	)
	err := row.Scan(&rec.ID, &rec.Keyboard, &rec.Keymap, &outputDir, &status, &exitCode,
		&artifactPath, &artifactSize, &reason, &problems, &rec.StartedAt, &rec.FinishedAt)
	if err != nil {
		return nil, fmt.Errorf("scanning build: %w", err)
	}

	rec.Status = models.BuildStatus(status)
	rec.OutputDir = outputDir.String
	rec.ArtifactPath = artifactPath.String
	rec.ArtifactSize = artifactSize.Int64
	rec.Reason = reason.String
	if exitCode.Valid {
		code := int(exitCode.Int32)
		rec.ExitCode = &code
	}
	if len(problems) > 0 {
		if err := msgpack.Unmarshal(problems, &rec.Problems); err != nil {
			return nil, fmt.Errorf("decoding problems: %w", err)
		}
	}
	return &rec, nil
}

// String describes the store for log lines.
func (s *Store) String() string {
	if s.dbPath == "" {
		return "history(memory)"
	}
	return "history(" + s.dbPath + ")"
}
