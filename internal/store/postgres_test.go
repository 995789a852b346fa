package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/csml-lang/interpreter/internal/bot"
)

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows for testing.
type mockRows struct {
	data [][]any
	idx  int
	err  error
}

func (r *mockRows) Close()                                       {}
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		}
	}
	return nil
}

func (r *mockRows) Values() ([]any, error) { return nil, nil }

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func TestCreate_Success(t *testing.T) {
	t.Parallel()
	now := time.Now()
	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error {
				*dest[0].(*time.Time) = now
				return nil
			}}
		},
	}
	s := NewPostgresStore(db)
	v := &BotVersion{
		BotID:       "greeter",
		VersionID:   "v1",
		DefaultFlow: "start",
		Flows:       []bot.FlowSource{{Name: "start", Content: "flow start { start: say \"hi\" end }"}},
	}
	if err := s.Create(context.Background(), v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt: got %v, want %v", v.CreatedAt, now)
	}
}

func TestCreate_DuplicateKey(t *testing.T) {
	t.Parallel()
	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error {
				return &pgconn.PgError{Code: "23505"}
			}}
		},
	}
	s := NewPostgresStore(db)
	err := s.Create(context.Background(), &BotVersion{BotID: "greeter", VersionID: "v1", DefaultFlow: "start"})
	if err == nil {
		t.Fatal("expected duplicate-key error, got nil")
	}
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	s := NewPostgresStore(&mockDB{})
	v, err := s.Get(context.Background(), "greeter", "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil version, got %+v", v)
	}
}

func TestGet_Success(t *testing.T) {
	t.Parallel()
	now := time.Now()
	ncJSON, _ := json.Marshal(map[string]any{})
	blob, _ := encodeBotBlob("start")

	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error {
				*dest[0].(*string) = "v1"
				*dest[1].(*string) = "1.0.0"
				*dest[2].(*string) = "start"
				*dest[3].(*[]byte) = ncJSON
				*dest[4].(*string) = blob
				*dest[5].(*time.Time) = now
				return nil
			}}
		},
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &mockRows{data: [][]any{
				{"start", "flow start { start: say \"hi\" end }"},
			}}, nil
		},
	}
	s := NewPostgresStore(db)
	v, err := s.Get(context.Background(), "greeter", "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v == nil {
		t.Fatal("expected a version, got nil")
	}
	if v.VersionID != "v1" || v.DefaultFlow != "start" || v.EngineVersion != "1.0.0" {
		t.Errorf("unexpected version fields: %+v", v)
	}
	if len(v.Flows) != 1 || v.Flows[0].Name != "start" {
		t.Errorf("unexpected flows: %+v", v.Flows)
	}
}

func TestLatest_NoVersions(t *testing.T) {
	t.Parallel()
	s := NewPostgresStore(&mockDB{})
	v, err := s.Latest(context.Background(), "greeter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil, got %+v", v)
	}
}

func TestListVersions(t *testing.T) {
	t.Parallel()
	db := &mockDB{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &mockRows{data: [][]any{{"v2"}, {"v1"}}}, nil
		},
	}
	s := NewPostgresStore(db)
	ids, err := s.ListVersions(context.Background(), "greeter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "v2" || ids[1] != "v1" {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestUpsert(t *testing.T) {
	t.Parallel()
	now := time.Now()
	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error {
				*dest[0].(*time.Time) = now
				return nil
			}}
		},
	}
	s := NewPostgresStore(db)
	v := &BotVersion{BotID: "greeter", VersionID: "v1", DefaultFlow: "start"}
	if err := s.Upsert(context.Background(), v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s := NewPostgresStore(&mockDB{})
	if err := s.Delete(context.Background(), "greeter", "v1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeBotBlob_Invalid(t *testing.T) {
	t.Parallel()
	if _, err := decodeBotBlob("not-base64!!!"); err == nil {
		t.Fatal("expected error for invalid base64, got nil")
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	t.Parallel()
	if isDuplicateKeyError(errors.New("plain error")) {
		t.Error("expected false for a non-pgconn error")
	}
	if !isDuplicateKeyError(&pgconn.PgError{Code: "23505"}) {
		t.Error("expected true for SQLSTATE 23505")
	}
}
