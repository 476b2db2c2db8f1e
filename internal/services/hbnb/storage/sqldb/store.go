// Package sqldb provides the relational storage engine backed by SQLite or
// PostgreSQL.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/louisbranch/hbnb/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/hbnb/internal/platform/timeouts"
	"github.com/louisbranch/hbnb/internal/services/hbnb/models"
	"github.com/louisbranch/hbnb/internal/services/hbnb/storage"
	"github.com/louisbranch/hbnb/internal/services/hbnb/storage/sqldb/migrations"
	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const joinTable = "place_amenity"

// tables maps persisted classes to their table. BaseModel has none.
var tables = map[string]string{
	models.ClassUser:    "users",
	models.ClassState:   "states",
	models.ClassCity:    "cities",
	models.ClassAmenity: "amenities",
	models.ClassPlace:   "places",
	models.ClassReview:  "reviews",
}

// dropOrder lists tables children first.
var dropOrder = []string{joinTable, "reviews", "places", "cities", "amenities", "states", "users"}

// Options configures a relational store.
type Options struct {
	Dialect sqlmigrate.Dialect
	DSN     string
	// Reset drops every table before the schema is created.
	Reset  bool
	Logger *log.Logger
}

type opKind int

const (
	opUpsert opKind = iota + 1
	opDelete
)

type stagedOp struct {
	kind   opKind
	entity models.Entity
}

// Store persists entities in one table per class. New and Delete stage
// operations in the session; Save applies them in one transaction.
type Store struct {
	opts   Options
	sqlDB  *sql.DB
	staged []stagedOp
}

// Open connects to the database, optionally resets it, and applies the
// embedded schema.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	if opts.Dialect == "" {
		opts.Dialect = sqlmigrate.SQLite
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := &Store{opts: opts}
	if err := s.connect(ctx, opts.Reset); err != nil {
		return nil, err
	}
	return s, nil
}

// StrictSchema reports that only declared attributes can be persisted.
func (s *Store) StrictSchema() bool {
	return true
}

// All returns committed rows overlaid with the staged session.
func (s *Store) All(ctx context.Context, class string) (map[string]models.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := map[string]models.Entity{}
	for _, name := range models.Classes() {
		if class != "" && class != name {
			continue
		}
		if _, ok := tables[name]; !ok {
			continue
		}
		rows, err := s.loadClass(ctx, name, "")
		if err != nil {
			return nil, err
		}
		for _, e := range rows {
			out[models.Key(e)] = e
		}
	}
	for _, op := range s.staged {
		if class != "" && op.entity.Class() != class {
			continue
		}
		key := models.Key(op.entity)
		switch op.kind {
		case opUpsert:
			out[key] = op.entity
		case opDelete:
			delete(out, key)
		}
	}
	return out, nil
}

// Get returns one entity, preferring the latest staged operation for its key.
func (s *Store) Get(ctx context.Context, class, id string) (models.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := models.KeyOf(class, id)
	for i := len(s.staged) - 1; i >= 0; i-- {
		op := s.staged[i]
		if models.Key(op.entity) != key {
			continue
		}
		if op.kind == opDelete {
			return nil, storage.ErrNotFound
		}
		return op.entity, nil
	}
	if _, ok := tables[class]; !ok {
		return nil, storage.ErrNotFound
	}
	rows, err := s.loadClass(ctx, class, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	return rows[0], nil
}

// New stages an upsert of e.
func (s *Store) New(e models.Entity) {
	if e == nil {
		return
	}
	s.staged = append(s.staged, stagedOp{kind: opUpsert, entity: e})
}

// Delete stages a delete of e.
func (s *Store) Delete(e models.Entity) {
	if e == nil {
		return
	}
	s.staged = append(s.staged, stagedOp{kind: opDelete, entity: e})
}

// Save applies the staged session in one transaction. On failure the
// transaction is rolled back and the session is kept as it was.
func (s *Store) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(s.staged) == 0 {
		return nil
	}
	for _, op := range s.staged {
		if op.kind != opUpsert {
			continue
		}
		if err := checkPersistable(op.entity); err != nil {
			return err
		}
	}

	sqlDB, err := s.handle(ctx)
	if err != nil {
		return err
	}
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	for _, op := range s.staged {
		var err error
		switch op.kind {
		case opUpsert:
			err = s.upsert(ctx, tx, op.entity)
		case opDelete:
			err = s.remove(ctx, tx, op.entity)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.opts.Logger.Printf("sqldb: rollback: %v", rbErr)
			}
			return classify(fmt.Errorf("%s %s: %w", opName(op.kind), models.Key(op.entity), err))
		}
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return classify(fmt.Errorf("commit session: %w", err))
	}
	s.staged = nil
	return nil
}

// Reload discards the staged session and verifies the connection.
func (s *Store) Reload(ctx context.Context) error {
	s.staged = nil
	sqlDB, err := s.handle(ctx)
	if err != nil {
		return err
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.DBPing)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("%w: ping database: %w", storage.ErrUnavailable, err)
	}
	return nil
}

// Close discards the staged session and closes the handle. The next
// operation reopens it.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.staged = nil
	if s.sqlDB == nil {
		return nil
	}
	err := s.sqlDB.Close()
	s.sqlDB = nil
	return err
}

func (s *Store) handle(ctx context.Context) (*sql.DB, error) {
	if s.sqlDB == nil {
		if err := s.connect(ctx, false); err != nil {
			return nil, err
		}
	}
	return s.sqlDB, nil
}

func (s *Store) connect(ctx context.Context, reset bool) error {
	dialect := s.opts.Dialect
	dsn := s.opts.DSN
	if dialect == sqlmigrate.SQLite {
		dsn = sqliteDSN(dsn)
	}
	sqlDB, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return fmt.Errorf("%w: open %s db: %w", storage.ErrUnavailable, dialect, err)
	}
	if dialect == sqlmigrate.SQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.DBPing)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("%w: ping %s db: %w", storage.ErrUnavailable, dialect, err)
	}
	if reset {
		s.opts.Logger.Printf("sqldb: dropping tables")
		if err := sqlmigrate.DropTables(sqlDB, dialect, dropOrder...); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("reset schema: %w", err)
		}
	}
	if err := sqlmigrate.ApplyMigrations(sqlDB, dialect, migrations.FS, string(dialect)); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("run migrations: %w", err)
	}
	s.sqlDB = sqlDB
	return nil
}

// sqliteDSN enables foreign keys and a busy timeout unless the DSN already
// sets pragmas.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") || dsn == ":memory:" {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Store) loadClass(ctx context.Context, class, id string) ([]models.Entity, error) {
	sqlDB, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	table := tables[class]
	zero, err := models.Zero(class)
	if err != nil {
		return nil, err
	}
	cols := columnFields(zero)
	names := []string{"id", "created_at", "updated_at"}
	for _, f := range cols {
		names = append(names, f.Name)
	}
	query := "SELECT " + strings.Join(names, ", ") + " FROM " + table
	var args []any
	if id != "" {
		query += " WHERE id = ?"
		args = append(args, id)
	}

	rows, err := sqlDB.QueryContext(ctx, s.opts.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.Entity
	for rows.Next() {
		e, err := scanEntity(rows, class)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close %s rows: %w", table, err)
	}

	if class == models.ClassPlace && len(out) > 0 {
		if err := s.loadAmenityIDs(ctx, sqlDB, out, id); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanEntity(rows *sql.Rows, class string) (models.Entity, error) {
	e, err := models.Zero(class)
	if err != nil {
		return nil, err
	}
	cols := columnFields(e)
	var (
		entityID  string
		createdAt int64
		updatedAt int64
	)
	dest := []any{&entityID, &createdAt, &updatedAt}
	for _, f := range cols {
		switch f.Kind {
		case models.KindString:
			dest = append(dest, new(sql.NullString))
		case models.KindInt:
			dest = append(dest, new(sql.NullInt64))
		case models.KindDecimal:
			dest = append(dest, new(decimal.NullDecimal))
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	meta := e.Meta()
	meta.ID = entityID
	meta.CreatedAt = fromMicros(createdAt)
	meta.UpdatedAt = fromMicros(updatedAt)
	for i, f := range cols {
		var value any
		switch v := dest[i+3].(type) {
		case *sql.NullString:
			if v.Valid {
				value = v.String
			}
		case *sql.NullInt64:
			if v.Valid {
				value = v.Int64
			}
		case *decimal.NullDecimal:
			value = *v
		}
		if err := f.Set(value); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (s *Store) loadAmenityIDs(ctx context.Context, sqlDB *sql.DB, places []models.Entity, placeID string) error {
	query := "SELECT place_id, amenity_id FROM " + joinTable
	var args []any
	if placeID != "" {
		query += " WHERE place_id = ?"
		args = append(args, placeID)
	}
	rows, err := sqlDB.QueryContext(ctx, s.opts.Dialect.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("query %s: %w", joinTable, err)
	}
	defer rows.Close()

	links := map[string][]string{}
	for rows.Next() {
		var pid, aid string
		if err := rows.Scan(&pid, &aid); err != nil {
			return fmt.Errorf("scan %s: %w", joinTable, err)
		}
		links[pid] = append(links[pid], aid)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query %s: %w", joinTable, err)
	}
	for _, e := range places {
		place, ok := e.(*models.Place)
		if !ok {
			continue
		}
		ids := links[place.ID]
		sort.Strings(ids)
		if ids == nil {
			ids = []string{}
		}
		place.AmenityIDs = ids
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, tx *sql.Tx, e models.Entity) error {
	table := tables[e.Class()]
	meta := e.Meta()
	cols := columnFields(e)

	names := []string{"id", "created_at", "updated_at"}
	args := []any{meta.ID, toMicros(meta.CreatedAt), toMicros(meta.UpdatedAt)}
	for _, f := range cols {
		names = append(names, f.Name)
		args = append(args, columnValue(f))
	}
	updates := make([]string, 0, len(names)-1)
	for _, name := range names[1:] {
		updates = append(updates, name+" = excluded."+name)
	}
	query := "INSERT INTO " + table + " (" + strings.Join(names, ", ") + ") VALUES (" +
		placeholders(len(names)) + ") ON CONFLICT (id) DO UPDATE SET " + strings.Join(updates, ", ")
	if _, err := tx.ExecContext(ctx, s.opts.Dialect.Rebind(query), args...); err != nil {
		return err
	}

	place, ok := e.(*models.Place)
	if !ok {
		return nil
	}
	if _, err := tx.ExecContext(ctx, s.opts.Dialect.Rebind("DELETE FROM "+joinTable+" WHERE place_id = ?"), place.ID); err != nil {
		return err
	}
	for _, amenityID := range place.AmenityIDs {
		if _, err := tx.ExecContext(
			ctx,
			s.opts.Dialect.Rebind("INSERT INTO "+joinTable+" (place_id, amenity_id) VALUES (?, ?) ON CONFLICT DO NOTHING"),
			place.ID,
			amenityID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) remove(ctx context.Context, tx *sql.Tx, e models.Entity) error {
	table, ok := tables[e.Class()]
	if !ok {
		return nil
	}
	_, err := tx.ExecContext(ctx, s.opts.Dialect.Rebind("DELETE FROM "+table+" WHERE id = ?"), e.Meta().ID)
	return err
}

func checkPersistable(e models.Entity) error {
	key := models.Key(e)
	if _, ok := tables[e.Class()]; !ok {
		return fmt.Errorf("%w: %w: %s", storage.ErrConstraint, storage.ErrUnsupportedClass, key)
	}
	if extra := e.Meta().Extra; len(extra) > 0 {
		names := make([]string, 0, len(extra))
		for name := range extra {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("%w: %s has undeclared attributes %s", storage.ErrConstraint, key, strings.Join(names, ", "))
	}
	return nil
}

// columnFields returns the declared attributes stored as columns of the
// class table.
func columnFields(e models.Entity) []models.Field {
	fields := e.Fields()
	out := make([]models.Field, 0, len(fields))
	for _, f := range fields {
		if f.Kind == models.KindStringList {
			continue
		}
		out = append(out, f)
	}
	return out
}

func columnValue(f models.Field) any {
	switch v := f.Value().(type) {
	case string:
		if v == "" && f.Required {
			return nil
		}
		return v
	case int:
		return int64(v)
	case decimal.Decimal:
		return v.String()
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func opName(kind opKind) string {
	if kind == opDelete {
		return "delete"
	}
	return "upsert"
}

// classify wraps driver constraint violations as storage.ErrConstraint.
func classify(err error) error {
	if isConstraintError(err) {
		return fmt.Errorf("%w: %w", storage.ErrConstraint, err)
	}
	return err
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3lib.SQLITE_CONSTRAINT
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return false
}

func toMicros(value time.Time) int64 {
	return value.UTC().UnixMicro()
}

func fromMicros(value int64) time.Time {
	return time.UnixMicro(value).UTC()
}

var _ storage.Engine = (*Store)(nil)
