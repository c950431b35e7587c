package store

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/wippyai/refgraph"
	"github.com/wippyai/refgraph/errors"
	"github.com/wippyai/refgraph/transcoder"
)

//go:embed schema.sql
var schemaSQL string

// Snapshot is one stored graph.
type Snapshot struct {
	Created time.Time
	ID      string
	Name    string
	Prefix  string
	Data    []byte
	Entries int
}

// Store keeps snapshots in a SQLite database.
type Store struct {
	db     *sql.DB
	ser    *refgraph.Serializer
	logger *zap.Logger
}

// Open opens or creates the database at path. opts configure the serializer
// used by Put and Get; ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string, opts ...refgraph.Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStore, errors.KindInvalidInput, err, "open database")
	}
	// one connection serializes writers and keeps a :memory: database shared
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.PhaseStore, errors.KindInvalidInput, err, "apply schema")
	}

	ser := refgraph.New(opts...)
	logger := ser.Config().Logger
	if logger == nil {
		logger = transcoder.Logger()
	}
	return &Store{db: db, ser: ser, logger: logger}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Serializer returns the serializer snapshots are written and read with.
func (s *Store) Serializer() *refgraph.Serializer {
	return s.ser
}

// Put encodes v and stores it under name. It returns the new snapshot id.
func (s *Store) Put(ctx context.Context, name string, v any) (string, error) {
	doc, err := s.ser.EncodeDocument(v)
	if err != nil {
		return "", err
	}
	data, err := s.ser.Codec().Marshal(doc, "")
	if err != nil {
		return "", err
	}

	entries := 0
	if doc.IsTable() {
		entries = doc.Table.Len()
	}
	return s.insert(ctx, name, data, entries)
}

// PutText stores already encoded text after checking that it parses.
func (s *Store) PutText(ctx context.Context, name string, data []byte) (string, error) {
	doc, err := s.ser.Codec().Unmarshal(data)
	if err != nil {
		return "", err
	}

	entries := 0
	if doc.IsTable() {
		entries = doc.Table.Len()
	}
	return s.insert(ctx, name, data, entries)
}

func (s *Store) insert(ctx context.Context, name string, data []byte, entries int) (string, error) {
	if name == "" {
		return "", errors.InvalidInput(errors.PhaseStore, "snapshot name is empty")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", errors.Wrap(errors.PhaseStore, errors.KindInvalidInput, err, "generate snapshot id")
	}

	created := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO snapshots (snapshot_id, name, prefix, entries, created_at, data) VALUES (?, ?, ?, ?, ?, ?)",
		id.String(), name, s.ser.Codec().Prefix(), entries, created.Format(time.RFC3339Nano), data,
	)
	if err != nil {
		return "", errors.Wrap(errors.PhaseStore, errors.KindInvalidInput, err, "insert snapshot")
	}

	s.logger.Debug("stored snapshot",
		zap.String("id", id.String()),
		zap.String("name", name),
		zap.Int("entries", entries))
	return id.String(), nil
}

// Load returns the stored snapshot without decoding it.
func (s *Store) Load(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT snapshot_id, name, prefix, entries, created_at, data FROM snapshots WHERE snapshot_id = ?", id)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(errors.PhaseStore, "snapshot", id)
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Get loads and decodes a snapshot.
func (s *Store) Get(ctx context.Context, id string) (any, error) {
	snap, err := s.loadCompatible(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ser.Decode(snap.Data)
}

// GetInto loads a snapshot and decodes it into target, a non-nil pointer.
func (s *Store) GetInto(ctx context.Context, id string, target any) error {
	snap, err := s.loadCompatible(ctx, id)
	if err != nil {
		return err
	}
	return s.ser.DecodeInto(snap.Data, target)
}

func (s *Store) loadCompatible(ctx context.Context, id string) (*Snapshot, error) {
	snap, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if want := s.ser.Codec().Prefix(); snap.Prefix != want {
		return nil, errors.New(errors.PhaseStore, errors.KindInvalidInput).
			Detail("snapshot %s was written with prefix %q, store decodes %q", id, snap.Prefix, want).
			Build()
	}
	return snap, nil
}

// List returns all snapshots, oldest first, without their data.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT snapshot_id, name, prefix, entries, created_at, NULL FROM snapshots ORDER BY snapshot_id")
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStore, errors.KindInvalidInput, err, "list snapshots")
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.PhaseStore, errors.KindInvalidInput, err, "list snapshots")
	}
	return out, nil
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE snapshot_id = ?", id)
	if err != nil {
		return errors.Wrap(errors.PhaseStore, errors.KindInvalidInput, err, "delete snapshot")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.PhaseStore, errors.KindInvalidInput, err, "delete snapshot")
	}
	if n == 0 {
		return errors.NotFound(errors.PhaseStore, "snapshot", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var (
		snap    Snapshot
		created string
	)
	if err := row.Scan(&snap.ID, &snap.Name, &snap.Prefix, &snap.Entries, &created, &snap.Data); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, errors.Wrap(errors.PhaseStore, errors.KindInvalidInput, err, "read snapshot")
	}

	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStore, errors.KindInvalidInput, err, "parse created_at")
	}
	snap.Created = t
	return &snap, nil
}
