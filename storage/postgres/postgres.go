package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/i-SAS/isas-base/storage"
	storageerrors "github.com/i-SAS/isas-base/storage/errors"
)

const currentDatabaseVersion = 1

// undefined_table
const pqUndefinedTable = "42P01"

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Settings struct {
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

func (s Settings) dsn() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		url.QueryEscape(s.User), url.QueryEscape(s.Password), s.Host, s.Database)
}

// Store is the relational backend for metadata tables.
type Store struct {
	db     *sqlx.DB
	schema storage.Schema
	logger hclog.Logger
}

func New(settings Settings, logger hclog.Logger) (*Store, error) {
	schema, err := storage.DefaultSchema()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("postgres", settings.dsn())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	return &Store{
		db:     db,
		schema: schema,
		logger: logger.Named("postgres"),
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	dbDriver, err := migratepg.WithInstance(s.db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "metadata", dbDriver)
	if err != nil {
		return err
	}

	err = migrator.Migrate(currentDatabaseVersion)
	if err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	}

	return nil
}

// LoadTable returns all rows of a metadata table. A table missing from the
// database loads as no rows.
func (s *Store) LoadTable(ctx context.Context, table string) ([]storage.Row, error) {
	if _, err := s.schema.Lookup(table); err != nil {
		return nil, err
	}

	s.logger.Debug("load table", "table", table)
	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, table))
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select from %q: %w", table, err)
	}
	defer rows.Close()

	var out []storage.Row
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		out = append(out, storage.Row(row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return s.schema.NormalizeRows(table, out)
}

// SaveTable writes rows into a metadata table. Sync mode upserts on the
// table's conflict key by staging rows in a uniquely named scratch table;
// append mode inserts rows as new records.
func (s *Store) SaveTable(ctx context.Context, table string, rows []storage.Row, mode storage.SaveMode) error {
	if len(rows) == 0 {
		return nil
	}

	tableSchema, err := s.schema.Lookup(table)
	if err != nil {
		return err
	}
	rows, err = s.schema.NormalizeRows(table, rows)
	if err != nil {
		return err
	}
	columns := presentColumns(tableSchema, rows)
	if len(columns) == 0 {
		return nil
	}

	s.logger.Debug("save table", "table", table, "rows", len(rows), "mode", mode.String())
	switch mode {
	case storage.SaveAppend:
		return s.appendRows(ctx, table, columns, rows)
	case storage.SaveSync:
		return s.syncRows(ctx, table, tableSchema.ConflictKey, columns, rows)
	default:
		return storageerrors.NewInvalidSaveMode(
			fmt.Sprintf("postgres store does not support save mode %q", mode.String()))
	}
}

func (s *Store) appendRows(ctx context.Context, table string, columns []string, rows []storage.Row) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sqlx.Tx) {
		_ = tx.Rollback()
	}(tx)

	if err := insertRows(ctx, tx, table, columns, rows); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) syncRows(ctx context.Context, table, conflictKey string, columns []string, rows []storage.Row) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sqlx.Tx) {
		_ = tx.Rollback()
	}(tx)

	scratch := fmt.Sprintf("%s_%s", table, uuid.New().String())
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE "%s" AS SELECT * FROM "%s" WHERE false;`, scratch, table))
	if err != nil {
		return fmt.Errorf("create scratch table for %q: %w", table, err)
	}

	if err := insertRows(ctx, tx, scratch, columns, rows); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, upsertQuery(table, scratch, conflictKey, columns))
	if err != nil {
		return fmt.Errorf("upsert into %q: %w", table, err)
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE "%s";`, scratch))
	if err != nil {
		return err
	}

	return tx.Commit()
}

func insertRows(ctx context.Context, tx *sqlx.Tx, table string, columns []string, rows []storage.Row) error {
	stmt, err := tx.PrepareNamedContext(ctx, insertQuery(table, columns))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make(map[string]interface{}, len(columns))
		for _, col := range columns {
			args[col] = row[col]
		}
		if _, err := stmt.ExecContext(ctx, args); err != nil {
			return fmt.Errorf("insert into %q: %w", table, err)
		}
	}
	return nil
}

func insertQuery(table string, columns []string) string {
	quoted := make([]string, 0, len(columns))
	named := make([]string, 0, len(columns))
	for _, col := range columns {
		quoted = append(quoted, fmt.Sprintf(`"%s"`, col))
		named = append(named, ":"+col)
	}
	return fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s);`,
		table, strings.Join(quoted, ", "), strings.Join(named, ", "))
}

func upsertQuery(table, scratch, conflictKey string, columns []string) string {
	quoted := make([]string, 0, len(columns))
	updates := make([]string, 0, len(columns))
	for _, col := range columns {
		quoted = append(quoted, fmt.Sprintf(`"%s"`, col))
		if col != conflictKey {
			updates = append(updates, fmt.Sprintf(`"%s" = EXCLUDED."%s"`, col, col))
		}
	}
	columnList := strings.Join(quoted, ", ")
	if len(updates) == 0 {
		return fmt.Sprintf(`INSERT INTO "%s" (%s) SELECT %s FROM "%s" ON CONFLICT (%s) DO NOTHING;`,
			table, columnList, columnList, scratch, conflictKey)
	}
	return fmt.Sprintf(`INSERT INTO "%s" (%s) SELECT %s FROM "%s" ON CONFLICT (%s) DO UPDATE SET %s;`,
		table, columnList, columnList, scratch, conflictKey, strings.Join(updates, ", "))
}

// presentColumns keeps the schema's column order, restricted to columns any
// row actually carries. Append saves rely on this to omit serial IDs.
func presentColumns(tableSchema storage.TableSchema, rows []storage.Row) []string {
	var columns []string
	for _, col := range tableSchema.Columns {
		for _, row := range rows {
			if _, ok := row[col.Name]; ok {
				columns = append(columns, col.Name)
				break
			}
		}
	}
	return columns
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUndefinedTable
	}
	return false
}
