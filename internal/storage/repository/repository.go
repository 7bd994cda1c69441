// Package repository реализует хранилище клиентов поверх database/sql.
// Поддерживаются два драйвера: локальный файл SQLite (modernc.org/sqlite)
// и PostgreSQL через pgx. Каждая операция берёт отдельное соединение
// из пула и возвращает его перед выходом.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/magabrotheeeer/controtec/internal/config"
	"github.com/magabrotheeeer/controtec/internal/storage"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Storage инкапсулирует пул соединений с базой данных.
type Storage struct {
	DB     *sql.DB
	driver string
}

// New открывает хранилище согласно настройкам и проверяет соединение.
func New(cfg config.Storage) (*Storage, error) {
	const op = "storage.New"

	var dsn string
	switch cfg.Driver {
	case DriverSQLite:
		path := filepath.Clean(cfg.Path)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	case DriverPostgres:
		dsn = cfg.ConnectionString
	default:
		return nil, fmt.Errorf("%s: unknown driver %q", op, cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB:     db,
		driver: cfg.Driver,
	}, nil
}

// Driver возвращает имя драйвера, с которым открыто хранилище.
func (s *Storage) Driver() string {
	return s.driver
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что схема накатана и таблица клиентов доступна.
func CheckDatabaseReady(ctx context.Context, s *Storage) error {
	var one int
	err := s.DB.QueryRowContext(ctx, `SELECT 1 FROM clients LIMIT 1`).Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("required table clients missing or query error: %w", err)
	}
	return nil
}

// conn выдаёт соединение на время одной логической операции.
// Вызывающий обязан закрыть его через defer.
func (s *Storage) conn(ctx context.Context) (*sql.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.DB.Conn(ctx)
}

// rebind переводит плейсхолдеры $N в ?N для SQLite.
func (s *Storage) rebind(query string) string {
	if s.driver == DriverSQLite {
		return strings.ReplaceAll(query, "$", "?")
	}
	return query
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}

func mapError(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, storage.ErrClientNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, storage.ErrPhoneExists)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
