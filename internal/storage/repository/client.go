package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/controtec/internal/models"
	"github.com/magabrotheeeer/controtec/internal/storage"
)

const clientColumns = `id, name, phone, product, expiration_date, category`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		c                           models.Client
		product, expires, category sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &product, &expires, &category); err != nil {
		return nil, err
	}
	c.Product = product.String
	c.ExpirationDate = expires.String
	c.Category = models.ParseCategory(category.String)
	return &c, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateClient вставляет нового клиента и возвращает его ID.
// Занятый телефон даёт storage.ErrPhoneExists.
func (s *Storage) CreateClient(ctx context.Context, c models.Client) (int64, error) {
	const op = "storage.CreateClient"
	conn, err := s.conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	query := s.rebind(`INSERT INTO clients (name, phone, product, expiration_date, category)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`)
	var newID int64
	err = conn.QueryRowContext(ctx, query,
		c.Name, c.Phone, nullIfEmpty(c.Product), nullIfEmpty(c.ExpirationDate),
		nullIfEmpty(string(c.Category))).Scan(&newID)
	if err != nil {
		return 0, mapError(op, err)
	}
	return newID, nil
}

// ReadClient возвращает клиента по ID или storage.ErrClientNotFound.
func (s *Storage) ReadClient(ctx context.Context, id int64) (*models.Client, error) {
	const op = "storage.ReadClient"
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	query := s.rebind(`SELECT ` + clientColumns + ` FROM clients WHERE id = $1`)
	c, err := scanClient(conn.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return c, nil
}

// UpdateClient перезаписывает все поля клиента, кроме ID.
// Телефон другого клиента даёт storage.ErrPhoneExists, неизвестный ID даёт storage.ErrClientNotFound.
func (s *Storage) UpdateClient(ctx context.Context, id int64, c models.Client) error {
	const op = "storage.UpdateClient"
	conn, err := s.conn(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	query := s.rebind(`UPDATE clients
			  SET name = $1, phone = $2, product = $3, expiration_date = $4, category = $5
			  WHERE id = $6`)
	result, err := conn.ExecContext(ctx, query,
		c.Name, c.Phone, nullIfEmpty(c.Product), nullIfEmpty(c.ExpirationDate),
		nullIfEmpty(string(c.Category)), id)
	if err != nil {
		return mapError(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrClientNotFound)
	}
	return nil
}

// RemoveClient удаляет клиента по ID и возвращает количество удалённых строк.
// Удаление несуществующего ID не ошибка.
func (s *Storage) RemoveClient(ctx context.Context, id int64) (int, error) {
	const op = "storage.RemoveClient"
	conn, err := s.conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	result, err := conn.ExecContext(ctx, s.rebind(`DELETE FROM clients WHERE id = $1`), id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListClients возвращает всех клиентов, упорядоченных по имени.
func (s *Storage) ListClients(ctx context.Context) ([]*models.Client, error) {
	const op = "storage.ListClients"
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	rows, err := conn.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
