package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/montfort-alumni/slambook-cli/internal/config"
	"github.com/montfort-alumni/slambook-cli/internal/db"
	"github.com/montfort-alumni/slambook-cli/internal/slambook"
)

// Postgres implements Store using pgxpool.
type Postgres struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a Postgres store with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *config.PoolConfig) (*Postgres, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &Postgres{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id                       BIGINT PRIMARY KEY,
	name                     TEXT NOT NULL,
	nicknames                TEXT,
	location                 TEXT,
	current_job              TEXT,
	year_graduated           TEXT,
	designation_organisation TEXT,
	profile_image_url        TEXT,
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE SEQUENCE IF NOT EXISTS profile_id_seq;

CREATE TABLE IF NOT EXISTS profile_answers (
	profile_id  BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	question_id SMALLINT NOT NULL CHECK (question_id BETWEEN 1 AND 10),
	answer      TEXT NOT NULL,
	PRIMARY KEY (profile_id, question_id)
);

CREATE TABLE IF NOT EXISTS slambook_ingest_runs (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	report       JSONB,
	error        TEXT,
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_profile_answers_profile_id ON profile_answers(profile_id);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON slambook_ingest_runs(started_at DESC);
`

// Migrate creates the schema and advances the id sequence past any rows
// that predate sequence-backed allocation.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	_, err := s.pool.Exec(ctx,
		`SELECT setval('profile_id_seq', COALESCE((SELECT MAX(id) FROM profiles), 0) + 1, false)`)
	return eris.Wrap(err, "postgres: advance profile_id_seq")
}

func (s *Postgres) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *Postgres) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *Postgres) ListAll(ctx context.Context) ([]slambook.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(year_graduated, ''), profile_image_url FROM profiles ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list profiles")
	}
	defer rows.Close()

	var profiles []slambook.Profile
	for rows.Next() {
		var p slambook.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.YearGraduated, &p.ProfileImageURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan profile")
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// ReserveIDs draws n ids from the profiles sequence. Values are unique
// across concurrent callers, which is the whole point of delegating
// allocation to the store instead of computing max(id)+1 client-side.
func (s *Postgres) ReserveIDs(ctx context.Context, n int) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT nextval('profile_id_seq') FROM generate_series(1, $1)`, n)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: reserve ids")
	}
	defer rows.Close()

	ids := make([]int64, 0, n)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan reserved id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: reserve ids")
	}
	if len(ids) != n {
		return nil, eris.Errorf("postgres: reserved %d ids, wanted %d", len(ids), n)
	}
	return ids, nil
}

var profileColumns = []string{
	"id", "name", "nicknames", "location", "current_job",
	"year_graduated", "designation_organisation", "profile_image_url",
}

// UpsertMany applies all records in one bulk upsert keyed on id. Records
// for matched profiles arrive with the existing profile_image_url already
// carried over, so writing the column unconditionally never nulls out a
// previously uploaded photo.
func (s *Postgres) UpsertMany(ctx context.Context, records []slambook.UpsertRecord) ([]slambook.PersistedProfile, error) {
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{
			r.ID, r.Name, r.Nicknames, r.Location, r.CurrentJob,
			r.YearGraduated, r.DesignationOrganisation, r.ProfileImageURL,
		}
	}

	_, returned, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "profiles",
		Columns:      profileColumns,
		ConflictKeys: []string{"id"},
		Returning:    []string{"id", "name"},
	}, rows)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: upsert profiles")
	}

	persisted := make([]slambook.PersistedProfile, 0, len(returned))
	for _, vals := range returned {
		if len(vals) != 2 {
			return nil, eris.Errorf("postgres: upsert returned %d columns, wanted 2", len(vals))
		}
		id, ok := asInt64(vals[0])
		if !ok {
			return nil, eris.Errorf("postgres: upsert returned non-integer id %v", vals[0])
		}
		name, _ := vals[1].(string)
		persisted = append(persisted, slambook.PersistedProfile{ID: id, Name: name})
	}
	return persisted, nil
}

func (s *Postgres) DeleteByProfileIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM profile_answers WHERE profile_id = ANY($1)`, ids)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete answers")
	}
	return tag.RowsAffected(), nil
}

func (s *Postgres) InsertMany(ctx context.Context, records []slambook.AnswerRecord) (int64, error) {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.ProfileID, r.QuestionID, r.Answer}
	}
	n, err := db.CopyFrom(ctx, s.pool, "profile_answers",
		[]string{"profile_id", "question_id", "answer"}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert answers")
	}
	return n, nil
}

func (s *Postgres) ListFullProfiles(ctx context.Context) ([]slambook.UpsertRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(nicknames, ''), COALESCE(location, ''), COALESCE(current_job, ''),
		        COALESCE(year_graduated, ''), COALESCE(designation_organisation, ''), profile_image_url
		 FROM profiles ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list full profiles")
	}
	defer rows.Close()

	var records []slambook.UpsertRecord
	for rows.Next() {
		var r slambook.UpsertRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Nicknames, &r.Location, &r.CurrentJob,
			&r.YearGraduated, &r.DesignationOrganisation, &r.ProfileImageURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan full profile")
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Postgres) ListAllAnswers(ctx context.Context) ([]slambook.AnswerRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT profile_id, question_id, answer FROM profile_answers ORDER BY profile_id, question_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list answers")
	}
	defer rows.Close()

	var answers []slambook.AnswerRecord
	for rows.Next() {
		var a slambook.AnswerRecord
		if err := rows.Scan(&a.ProfileID, &a.QuestionID, &a.Answer); err != nil {
			return nil, eris.Wrap(err, "postgres: scan answer")
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *Postgres) StartRun(ctx context.Context, filename string) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO slambook_ingest_runs (id, filename, status, started_at) VALUES ($1, $2, $3, now())`,
		id, filename, slambook.RunStatusRunning,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: start run")
	}
	return id, nil
}

func (s *Postgres) CompleteRun(ctx context.Context, runID string, report *slambook.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE slambook_ingest_runs SET status = $1, report = $2, completed_at = now() WHERE id = $3`,
		slambook.RunStatusComplete, reportJSON, runID,
	)
	return eris.Wrapf(err, "postgres: complete run %s", runID)
}

func (s *Postgres) FailRun(ctx context.Context, runID, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE slambook_ingest_runs SET status = $1, error = $2, completed_at = now() WHERE id = $3`,
		slambook.RunStatusFailed, errMsg, runID,
	)
	return eris.Wrapf(err, "postgres: fail run %s", runID)
}

func (s *Postgres) ListRuns(ctx context.Context, limit int) ([]slambook.IngestRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, filename, status, report, error, started_at, completed_at
		 FROM slambook_ingest_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []slambook.IngestRun
	for rows.Next() {
		var (
			r          slambook.IngestRun
			reportJSON []byte
			errStr     *string
		)
		if err := rows.Scan(&r.ID, &r.Filename, &r.Status, &reportJSON, &errStr, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if errStr != nil {
			r.Error = *errStr
		}
		if len(reportJSON) > 0 {
			r.Report = &slambook.Report{}
			if err := json.Unmarshal(reportJSON, r.Report); err != nil {
				r.Report = nil
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
