package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/csml-lang/interpreter/internal/bot"
	"github.com/csml-lang/interpreter/internal/builtin"
)

// Schema is the SQL DDL for the bot_versions and bot_flows tables. Execute
// it via [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS bot_versions (
    bot_id            TEXT NOT NULL,
    version_id        TEXT NOT NULL,
    engine_version    TEXT NOT NULL DEFAULT '',
    default_flow      TEXT NOT NULL,
    native_components JSONB NOT NULL DEFAULT '{}',
    bot               TEXT NOT NULL,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (bot_id, version_id)
);
CREATE INDEX IF NOT EXISTS idx_bot_versions_created ON bot_versions(bot_id, created_at DESC);

CREATE TABLE IF NOT EXISTS bot_flows (
    bot_id     TEXT NOT NULL,
    version_id TEXT NOT NULL,
    flow_id    TEXT NOT NULL,
    sort_key   TEXT NOT NULL,
    source     TEXT NOT NULL,
    PRIMARY KEY (bot_id, version_id, flow_id)
);
CREATE INDEX IF NOT EXISTS idx_bot_flows_sort ON bot_flows(bot_id, sort_key);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database, adapted from
// the teacher's internal/agent/npcstore.PostgresStore and
// pkg/memory/postgres.Store: JSONB for structured sub-fields, SQLSTATE
// 23505 for duplicate-key detection, pgx.ErrNoRows for not-found.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given
// database connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing
// queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// botEnvelope is the payload base64-encoded into the bot_versions.bot
// column, mirroring the reference format's serialized-bot blob. Flows are
// not included here; they're persisted separately in bot_flows, the same
// split the reference implementation makes between its "bot" item and its
// per-flow items.
type botEnvelope struct {
	DefaultFlow string `json:"default_flow"`
}

func encodeBotBlob(defaultFlow string) (string, error) {
	raw, err := json.Marshal(botEnvelope{DefaultFlow: defaultFlow})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeBotBlob(blob string) (botEnvelope, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return botEnvelope{}, fmt.Errorf("store: invalid bot blob: %w", err)
	}
	var env botEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return botEnvelope{}, fmt.Errorf("store: invalid bot blob: %w", err)
	}
	return env, nil
}

// Create inserts a new bot version and its flows in one transaction-like
// sequence (version row first, then flow rows — a failure after the version
// row is written simply leaves the version pointing at zero flows, which
// Get already tolerates). Returns an error if the (BotID, VersionID) pair
// already exists.
func (s *PostgresStore) Create(ctx context.Context, v *BotVersion) error {
	blob, err := encodeBotBlob(v.DefaultFlow)
	if err != nil {
		return fmt.Errorf("store: encode bot blob: %w", err)
	}
	ncJSON, err := json.Marshal(emptyRegistry(v.NativeComponents))
	if err != nil {
		return fmt.Errorf("store: marshal native_components: %w", err)
	}

	const query = `
		INSERT INTO bot_versions (bot_id, version_id, engine_version, default_flow, native_components, bot)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`

	err = s.db.QueryRow(ctx, query,
		v.BotID, v.VersionID, v.EngineVersion, v.DefaultFlow, ncJSON, blob,
	).Scan(&v.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("store: bot %q version %q already exists", v.BotID, v.VersionID)
		}
		return fmt.Errorf("store: create: %w", err)
	}

	return s.insertFlows(ctx, v.BotID, v.VersionID, v.Flows)
}

func (s *PostgresStore) insertFlows(ctx context.Context, botID, versionID string, flows []bot.FlowSource) error {
	const query = `
		INSERT INTO bot_flows (bot_id, version_id, flow_id, sort_key, source)
		VALUES ($1,$2,$3,$4,$5)`
	for _, f := range flows {
		_, err := s.db.Exec(ctx, query, botID, versionID, f.Name, flowSortKey(versionID, f.Name), f.Content)
		if err != nil {
			return fmt.Errorf("store: insert flow %q: %w", f.Name, err)
		}
	}
	return nil
}

// Get retrieves one bot version by (botID, versionID), including its flows.
func (s *PostgresStore) Get(ctx context.Context, botID, versionID string) (*BotVersion, error) {
	const query = `
		SELECT version_id, engine_version, default_flow, native_components, bot, created_at
		FROM bot_versions
		WHERE bot_id = $1 AND version_id = $2`

	v, err := s.scanVersion(s.db.QueryRow(ctx, query, botID, versionID), botID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get %q/%q: %w", botID, versionID, err)
	}

	flows, err := s.getFlows(ctx, botID, versionID)
	if err != nil {
		return nil, err
	}
	v.Flows = flows
	return v, nil
}

// Latest retrieves the most recently created version of botID.
func (s *PostgresStore) Latest(ctx context.Context, botID string) (*BotVersion, error) {
	const query = `
		SELECT version_id, engine_version, default_flow, native_components, bot, created_at
		FROM bot_versions
		WHERE bot_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	v, err := s.scanVersion(s.db.QueryRow(ctx, query, botID), botID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: latest %q: %w", botID, err)
	}

	flows, err := s.getFlows(ctx, botID, v.VersionID)
	if err != nil {
		return nil, err
	}
	v.Flows = flows
	return v, nil
}

func (s *PostgresStore) scanVersion(row pgx.Row, botID string) (*BotVersion, error) {
	v := &BotVersion{BotID: botID}
	var ncJSON []byte
	var blob string
	if err := row.Scan(&v.VersionID, &v.EngineVersion, &v.DefaultFlow, &ncJSON, &blob, &v.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(ncJSON, &v.NativeComponents); err != nil {
		return nil, fmt.Errorf("store: unmarshal native_components: %w", err)
	}
	if _, err := decodeBotBlob(blob); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *PostgresStore) getFlows(ctx context.Context, botID, versionID string) ([]bot.FlowSource, error) {
	const query = `
		SELECT flow_id, source
		FROM bot_flows
		WHERE bot_id = $1 AND version_id = $2
		ORDER BY sort_key`
	rows, err := s.db.Query(ctx, query, botID, versionID)
	if err != nil {
		return nil, fmt.Errorf("store: get flows %q/%q: %w", botID, versionID, err)
	}
	defer rows.Close()

	var flows []bot.FlowSource
	for rows.Next() {
		var f bot.FlowSource
		if err := rows.Scan(&f.Name, &f.Content); err != nil {
			return nil, fmt.Errorf("store: scan flow: %w", err)
		}
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: get flows %q/%q: %w", botID, versionID, err)
	}
	return flows, nil
}

// ListVersions returns every version ID for botID, newest first.
func (s *PostgresStore) ListVersions(ctx context.Context, botID string) ([]string, error) {
	const query = `
		SELECT version_id
		FROM bot_versions
		WHERE bot_id = $1
		ORDER BY created_at DESC`
	rows, err := s.db.Query(ctx, query, botID)
	if err != nil {
		return nil, fmt.Errorf("store: list versions %q: %w", botID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan version id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list versions %q: %w", botID, err)
	}
	return ids, nil
}

// Upsert creates or replaces a bot version and its flows.
func (s *PostgresStore) Upsert(ctx context.Context, v *BotVersion) error {
	blob, err := encodeBotBlob(v.DefaultFlow)
	if err != nil {
		return fmt.Errorf("store: encode bot blob: %w", err)
	}
	ncJSON, err := json.Marshal(emptyRegistry(v.NativeComponents))
	if err != nil {
		return fmt.Errorf("store: marshal native_components: %w", err)
	}

	const query = `
		INSERT INTO bot_versions (bot_id, version_id, engine_version, default_flow, native_components, bot)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (bot_id, version_id) DO UPDATE SET
			engine_version = EXCLUDED.engine_version,
			default_flow = EXCLUDED.default_flow,
			native_components = EXCLUDED.native_components,
			bot = EXCLUDED.bot
		RETURNING created_at`

	err = s.db.QueryRow(ctx, query,
		v.BotID, v.VersionID, v.EngineVersion, v.DefaultFlow, ncJSON, blob,
	).Scan(&v.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert: %w", err)
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM bot_flows WHERE bot_id = $1 AND version_id = $2`, v.BotID, v.VersionID); err != nil {
		return fmt.Errorf("store: upsert: clear flows: %w", err)
	}
	return s.insertFlows(ctx, v.BotID, v.VersionID, v.Flows)
}

// Delete removes one bot version and its flows. Deleting a non-existent
// version is not an error.
func (s *PostgresStore) Delete(ctx context.Context, botID, versionID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM bot_flows WHERE bot_id = $1 AND version_id = $2`, botID, versionID); err != nil {
		return fmt.Errorf("store: delete flows %q/%q: %w", botID, versionID, err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM bot_versions WHERE bot_id = $1 AND version_id = $2`, botID, versionID); err != nil {
		return fmt.Errorf("store: delete %q/%q: %w", botID, versionID, err)
	}
	return nil
}

// emptyRegistry returns r if non-nil, otherwise an empty non-nil map, so
// JSON marshalling produces "{}" instead of "null".
func emptyRegistry(r builtin.Registry) builtin.Registry {
	if r == nil {
		return builtin.Registry{}
	}
	return r
}

// isDuplicateKeyError checks whether a PostgreSQL error is a
// unique-violation (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
