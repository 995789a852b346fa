// Package store implements the informative "stored bot version" persistence
// format described in spec.md §6 (and confirmed against
// original_source/csml_engine/src/db_connectors/dynamodb/bot.rs's
// version_id / base64 bot blob / engine version / created-at field set),
// adapted to a relational schema via github.com/jackc/pgx/v5.
//
// This package is never imported by internal/evaluator, internal/parser, or
// internal/lexer: it is one concrete internal/bot.Loader implementation a
// host may choose, not part of the language core's hot path.
package store

import (
	"context"
	"time"

	"github.com/csml-lang/interpreter/internal/bot"
	"github.com/csml-lang/interpreter/internal/builtin"
)

// BotVersion is one immutable, stored version of a bot: its flows, default
// flow, and declared native components, versioned by VersionID.
type BotVersion struct {
	BotID            string
	VersionID        string
	EngineVersion    string
	DefaultFlow      string
	NativeComponents builtin.Registry
	Flows            []bot.FlowSource
	CreatedAt        time.Time
}

// Store provides CRUD operations for stored bot versions. Implementations
// must be safe for concurrent use.
type Store interface {
	// Create inserts a new bot version together with its flows. Returns an
	// error if a version with the same (BotID, VersionID) already exists.
	Create(ctx context.Context, v *BotVersion) error

	// Get retrieves one specific bot version by (botID, versionID). Returns
	// (nil, nil) if no such version exists.
	Get(ctx context.Context, botID, versionID string) (*BotVersion, error)

	// Latest retrieves the most recently created version of botID. Returns
	// (nil, nil) if the bot has no stored versions.
	Latest(ctx context.Context, botID string) (*BotVersion, error)

	// ListVersions returns every version ID for botID, newest first.
	ListVersions(ctx context.Context, botID string) ([]string, error)

	// Upsert creates or replaces a bot version, including its flows. Useful
	// for re-publishing a bot under an existing version ID.
	Upsert(ctx context.Context, v *BotVersion) error

	// Delete removes one bot version and its flows. Deleting a non-existent
	// version is not an error.
	Delete(ctx context.Context, botID, versionID string) error
}

// flowSortKey builds the compound sort key used for a flow row, mirroring
// the reference DynamoDB schema's "flow#<version_id>#<flow_id>" range key.
func flowSortKey(versionID, flowID string) string {
	return "flow#" + versionID + "#" + flowID
}
