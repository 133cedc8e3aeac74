// Package sqlite provides the SQLite-backed biography store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/recuerdo-dev/recuerdo/pkg/bio"
)

// bioRowID is the fixed key of the singleton row. Never caller-supplied.
const bioRowID = "singleton"

// timeLayout is RFC 3339 with fixed-width nanoseconds, matching the memory
// store: updated_at must advance on back-to-back writes, and fixed width
// keeps the stored strings lexically sortable.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements bio.Store on SQLite. Scalar fields are nullable
// TEXT columns; list fields are nullable TEXT columns holding JSON arrays,
// so a cleared field and an empty list stay distinguishable.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates (if needed) the user_bio table on the shared engine
// handle. The handle's lifecycle belongs to the caller; Close does not
// release it.
func NewSQLiteStore(db *sql.DB, logger *zap.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS user_bio (
			id TEXT PRIMARY KEY,
			nombre TEXT,
			ocupacion TEXT,
			ubicacion TEXT,
			timezone TEXT,
			tecnologias TEXT,
			herramientas TEXT,
			idiomas TEXT,
			mascotas TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		return nil, fmt.Errorf("creating user_bio table: %w", err)
	}

	logger.Info("sqlite biography store initialized")

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// Get retrieves the biography, or (nil, nil) when none exists.
func (s *SQLiteStore) Get(ctx context.Context) (*bio.Biography, error) {
	return s.get(ctx, s.db)
}

// querier covers both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) get(ctx context.Context, q querier) (*bio.Biography, error) {
	var (
		b                                            bio.Biography
		nombre, ocupacion, ubicacion, timezone       sql.NullString
		tecnologias, herramientas, idiomas, mascotas sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT nombre, ocupacion, ubicacion, timezone,
		       tecnologias, herramientas, idiomas, mascotas,
		       created_at, updated_at
		FROM user_bio WHERE id = ?
	`, bioRowID).Scan(
		&nombre, &ocupacion, &ubicacion, &timezone,
		&tecnologias, &herramientas, &idiomas, &mascotas,
		&b.CreatedAt, &b.UpdatedAt,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: reading biography: %v", bio.ErrStorage, err)
	}

	b.Nombre = scalarValue(nombre)
	b.Ocupacion = scalarValue(ocupacion)
	b.Ubicacion = scalarValue(ubicacion)
	b.Timezone = scalarValue(timezone)

	var decodeErr error
	b.Tecnologias, decodeErr = listValue(tecnologias, decodeErr)
	b.Herramientas, decodeErr = listValue(herramientas, decodeErr)
	b.Idiomas, decodeErr = listValue(idiomas, decodeErr)
	b.Mascotas, decodeErr = listValue(mascotas, decodeErr)
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decoding biography lists: %v", bio.ErrStorage, decodeErr)
	}

	return &b, nil
}

// Upsert applies the update, creating the singleton row when absent.
func (s *SQLiteStore) Upsert(ctx context.Context, update bio.Update) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: beginning transaction: %v", bio.ErrStorage, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timeLayout)

	existing, err := s.get(ctx, tx)
	if err != nil {
		return false, err
	}

	created := existing == nil
	record := existing
	if created {
		record = &bio.Biography{CreatedAt: now}
	}
	update.Apply(record)
	record.UpdatedAt = now

	if err := s.write(ctx, tx, record, created); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: committing transaction: %v", bio.ErrStorage, err)
	}

	s.logger.Debug("upserted biography", zap.Bool("created", created))

	return created, nil
}

// Patch sets a single recognized field. Returns (false, nil) when no record
// exists; a patch never materializes one.
func (s *SQLiteStore) Patch(ctx context.Context, field string, value any) (bool, error) {
	update, err := patchUpdate(field, value)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: beginning transaction: %v", bio.ErrStorage, err)
	}
	defer tx.Rollback()

	existing, err := s.get(ctx, tx)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	update.Apply(existing)
	existing.UpdatedAt = time.Now().UTC().Format(timeLayout)

	if err := s.write(ctx, tx, existing, false); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: committing transaction: %v", bio.ErrStorage, err)
	}

	s.logger.Debug("patched biography", zap.String("field", field))

	return true, nil
}

// patchUpdate converts a (field, value) pair into a single-field Update,
// validating the field name and the value's type.
func patchUpdate(field string, value any) (bio.Update, error) {
	var update bio.Update

	switch {
	case bio.IsScalarField(field):
		str, ok := value.(string)
		if !ok {
			return update, fmt.Errorf("%w: %s takes a string", bio.ErrInvalidValue, field)
		}
		f := bio.Set(str)
		switch field {
		case bio.FieldNombre:
			update.Nombre = f
		case bio.FieldOcupacion:
			update.Ocupacion = f
		case bio.FieldUbicacion:
			update.Ubicacion = f
		case bio.FieldTimezone:
			update.Timezone = f
		}
	case bio.IsListField(field):
		list, err := toStringList(value)
		if err != nil {
			return update, fmt.Errorf("%w: %s takes a list of strings", bio.ErrInvalidValue, field)
		}
		f := bio.Set(list)
		switch field {
		case bio.FieldTecnologias:
			update.Tecnologias = f
		case bio.FieldHerramientas:
			update.Herramientas = f
		case bio.FieldIdiomas:
			update.Idiomas = f
		case bio.FieldMascotas:
			update.Mascotas = f
		}
	default:
		return update, fmt.Errorf("%w: %q", bio.ErrUnknownField, field)
	}

	return update, nil
}

// toStringList accepts []string directly or []any of strings (the shape
// JSON-decoded tool arguments arrive in).
func toStringList(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		list := make([]string, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d is not a string", i)
			}
			list[i] = str
		}
		return list, nil
	default:
		return nil, fmt.Errorf("not a list")
	}
}

// write persists the full record in one statement.
func (s *SQLiteStore) write(ctx context.Context, tx *sql.Tx, b *bio.Biography, insert bool) error {
	lists := make([]sql.NullString, 4)
	for i, field := range [][]string{b.Tecnologias, b.Herramientas, b.Idiomas, b.Mascotas} {
		col, err := listColumn(field)
		if err != nil {
			return fmt.Errorf("%w: encoding biography lists: %v", bio.ErrStorage, err)
		}
		lists[i] = col
	}

	var err error
	if insert {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_bio(id, nombre, ocupacion, ubicacion, timezone,
				tecnologias, herramientas, idiomas, mascotas, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, bioRowID,
			scalarColumn(b.Nombre), scalarColumn(b.Ocupacion),
			scalarColumn(b.Ubicacion), scalarColumn(b.Timezone),
			lists[0], lists[1], lists[2], lists[3],
			b.CreatedAt, b.UpdatedAt,
		)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE user_bio SET nombre = ?, ocupacion = ?, ubicacion = ?, timezone = ?,
				tecnologias = ?, herramientas = ?, idiomas = ?, mascotas = ?, updated_at = ?
			WHERE id = ?
		`,
			scalarColumn(b.Nombre), scalarColumn(b.Ocupacion),
			scalarColumn(b.Ubicacion), scalarColumn(b.Timezone),
			lists[0], lists[1], lists[2], lists[3],
			b.UpdatedAt, bioRowID,
		)
	}
	if err != nil {
		return fmt.Errorf("%w: writing biography: %v", bio.ErrStorage, err)
	}

	return nil
}

func scalarColumn(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func scalarValue(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func listColumn(v []string) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func listValue(v sql.NullString, prior error) ([]string, error) {
	if prior != nil || !v.Valid {
		return nil, prior
	}
	var list []string
	if err := json.Unmarshal([]byte(v.String), &list); err != nil {
		return nil, err
	}
	if list == nil {
		// A stored empty array stays an empty list, not absent.
		list = []string{}
	}
	return list, nil
}

// Close releases store resources. The shared engine handle is owned by the
// caller and stays open.
func (s *SQLiteStore) Close() error {
	return nil
}

// Ensure SQLiteStore implements bio.Store
var _ bio.Store = (*SQLiteStore)(nil)
