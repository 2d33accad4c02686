package preference

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const tablePreferences = "preferences"

var _ Store = (*SQLStore)(nil)

// SQLStore keeps preferences in a single table. The sqlite ("sqlite"),
// postgres ("postgres") and mysql ("mysql") drivers are supported.
type SQLStore struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
	upsert  string
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate brings the schema up to date with the embedded migrations.
func Migrate(db *sqlx.DB) error {
	dialect, err := gooseDialect(db.DriverName())
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate preferences: %w", err)
	}
	return nil
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	case "postgres", "pgx":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	}
	return "", fmt.Errorf("unsupported database driver: %s", driver)
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	store := &SQLStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		upsert:  "ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
	}
	switch db.DriverName() {
	case "postgres", "pgx":
		store.builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	case "mysql":
		store.upsert = "ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)"
	}
	return store
}

func (s *SQLStore) Get(ctx context.Context, name string) (string, error) {
	query, args, err := s.builder.
		Select("value").
		From(tablePreferences).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return "", err
	}

	var value string
	if err := s.db.GetContext(ctx, &value, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, name, value string) error {
	query, args, err := s.builder.
		Insert(tablePreferences).
		Columns("name", "value", "updated_at").
		Values(name, value, time.Now().UTC()).
		Suffix(s.upsert).
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *SQLStore) Delete(ctx context.Context, name string) error {
	query, args, err := s.builder.
		Delete(tablePreferences).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

type preferenceRow struct {
	Name  string `db:"name"`
	Value string `db:"value"`
}

func (s *SQLStore) All(ctx context.Context) (map[string]string, error) {
	query, args, err := s.builder.
		Select("name", "value").
		From(tablePreferences).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []preferenceRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Name] = row.Value
	}
	return values, nil
}
