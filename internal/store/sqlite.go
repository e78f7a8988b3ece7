package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/montfort-alumni/slambook-cli/internal/slambook"
)

// SQLite implements Store using modernc.org/sqlite, for single-operator
// local use where running Postgres is overkill.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id                       INTEGER PRIMARY KEY,
	name                     TEXT NOT NULL,
	nicknames                TEXT,
	location                 TEXT,
	current_job              TEXT,
	year_graduated           TEXT,
	designation_organisation TEXT,
	profile_image_url        TEXT,
	updated_at               DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS profile_answers (
	profile_id  INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	question_id INTEGER NOT NULL CHECK (question_id BETWEEN 1 AND 10),
	answer      TEXT NOT NULL,
	PRIMARY KEY (profile_id, question_id)
);

CREATE TABLE IF NOT EXISTS slambook_ingest_runs (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	report       TEXT,
	error        TEXT,
	started_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS id_sequences (
	name    TEXT PRIMARY KEY,
	next_id INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profile_answers_profile_id ON profile_answers(profile_id);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON slambook_ingest_runs(started_at);
`

func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	// Seed the profiles sequence just past any pre-existing rows.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO id_sequences (name, next_id)
		 SELECT 'profiles', COALESCE(MAX(id), 0) + 1 FROM profiles
		 WHERE NOT EXISTS (SELECT 1 FROM id_sequences WHERE name = 'profiles')`)
	return eris.Wrap(err, "sqlite: seed id sequence")
}

func (s *SQLite) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) ListAll(ctx context.Context) ([]slambook.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(year_graduated, ''), profile_image_url FROM profiles ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list profiles")
	}
	defer rows.Close()

	var profiles []slambook.Profile
	for rows.Next() {
		var (
			p        slambook.Profile
			imageURL sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.YearGraduated, &imageURL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan profile")
		}
		if imageURL.Valid {
			p.ProfileImageURL = &imageURL.String
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *SQLite) ReserveIDs(ctx context.Context, n int) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin reserve ids")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE id_sequences SET next_id = next_id + ? WHERE name = 'profiles'`, n); err != nil {
		return nil, eris.Wrap(err, "sqlite: advance id sequence")
	}
	var end int64
	if err := tx.QueryRowContext(ctx,
		`SELECT next_id FROM id_sequences WHERE name = 'profiles'`).Scan(&end); err != nil {
		return nil, eris.Wrap(err, "sqlite: read id sequence")
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit reserve ids")
	}

	ids := make([]int64, n)
	for i := range ids {
		ids[i] = end - int64(n) + int64(i)
	}
	return ids, nil
}

func (s *SQLite) UpsertMany(ctx context.Context, records []slambook.UpsertRecord) ([]slambook.PersistedProfile, error) {
	if len(records) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO profiles (id, name, nicknames, location, current_job, year_graduated, designation_organisation, profile_image_url, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			nicknames = excluded.nicknames,
			location = excluded.location,
			current_job = excluded.current_job,
			year_graduated = excluded.year_graduated,
			designation_organisation = excluded.designation_organisation,
			profile_image_url = excluded.profile_image_url,
			updated_at = excluded.updated_at`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		var imageURL any
		if r.ProfileImageURL != nil {
			imageURL = *r.ProfileImageURL
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Name, r.Nicknames, r.Location, r.CurrentJob,
			r.YearGraduated, r.DesignationOrganisation, imageURL, now,
		); err != nil {
			return nil, eris.Wrapf(err, "sqlite: upsert profile %d", r.ID)
		}
	}

	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	query := `SELECT id, name FROM profiles WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := tx.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: read persisted profiles")
	}
	var persisted []slambook.PersistedProfile
	for rows.Next() {
		var p slambook.PersistedProfile
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "sqlite: scan persisted profile")
		}
		persisted = append(persisted, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: read persisted profiles")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit upsert")
	}
	return persisted, nil
}

func (s *SQLite) DeleteByProfileIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `DELETE FROM profile_answers WHERE profile_id IN (` + placeholders(len(ids)) + `)`
	res, err := s.db.ExecContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete answers")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: delete answers rows affected")
}

func (s *SQLite) InsertMany(ctx context.Context, records []slambook.AnswerRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert answers")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO profile_answers (profile_id, question_id, answer) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert answer")
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ProfileID, r.QuestionID, r.Answer); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert answer for profile %d q%d", r.ProfileID, r.QuestionID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert answers")
	}
	return int64(len(records)), nil
}

func (s *SQLite) ListFullProfiles(ctx context.Context) ([]slambook.UpsertRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(nicknames, ''), COALESCE(location, ''), COALESCE(current_job, ''),
		        COALESCE(year_graduated, ''), COALESCE(designation_organisation, ''), profile_image_url
		 FROM profiles ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list full profiles")
	}
	defer rows.Close()

	var records []slambook.UpsertRecord
	for rows.Next() {
		var (
			r        slambook.UpsertRecord
			imageURL sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Nicknames, &r.Location, &r.CurrentJob,
			&r.YearGraduated, &r.DesignationOrganisation, &imageURL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan full profile")
		}
		if imageURL.Valid {
			r.ProfileImageURL = &imageURL.String
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) ListAllAnswers(ctx context.Context) ([]slambook.AnswerRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT profile_id, question_id, answer FROM profile_answers ORDER BY profile_id, question_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list answers")
	}
	defer rows.Close()

	var answers []slambook.AnswerRecord
	for rows.Next() {
		var a slambook.AnswerRecord
		if err := rows.Scan(&a.ProfileID, &a.QuestionID, &a.Answer); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan answer")
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *SQLite) StartRun(ctx context.Context, filename string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO slambook_ingest_runs (id, filename, status, started_at) VALUES (?, ?, ?, ?)`,
		id, filename, slambook.RunStatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: start run")
	}
	return id, nil
}

func (s *SQLite) CompleteRun(ctx context.Context, runID string, report *slambook.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE slambook_ingest_runs SET status = ?, report = ?, completed_at = ? WHERE id = ?`,
		slambook.RunStatusComplete, string(reportJSON), time.Now().UTC(), runID,
	)
	return eris.Wrapf(err, "sqlite: complete run %s", runID)
}

func (s *SQLite) FailRun(ctx context.Context, runID, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE slambook_ingest_runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		slambook.RunStatusFailed, errMsg, time.Now().UTC(), runID,
	)
	return eris.Wrapf(err, "sqlite: fail run %s", runID)
}

func (s *SQLite) ListRuns(ctx context.Context, limit int) ([]slambook.IngestRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, status, report, error, started_at, completed_at
		 FROM slambook_ingest_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []slambook.IngestRun
	for rows.Next() {
		var (
			r           slambook.IngestRun
			reportJSON  sql.NullString
			errStr      sql.NullString
			completedAt sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Filename, &r.Status, &reportJSON, &errStr, &r.StartedAt, &completedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if errStr.Valid {
			r.Error = errStr.String
		}
		if completedAt.Valid {
			t := completedAt.Time
			r.CompletedAt = &t
		}
		if reportJSON.Valid && reportJSON.String != "" {
			r.Report = &slambook.Report{}
			if err := json.Unmarshal([]byte(reportJSON.String), r.Report); err != nil {
				r.Report = nil
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
