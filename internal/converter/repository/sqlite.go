package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"svg2emblem/internal/converter/models"
)

// ============================================================
// SQLite Repository
// ============================================================

var ErrNotFound = errors.New("emblem not found")

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init применяет миграцию схемы. Можно вызывать при каждом запуске.
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Ping проверяет, что база отвечает.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Save сохраняет e и заполняет CreatedAt, если он пуст.
func (r *Repository) Save(ctx context.Context, e *models.Emblem) error {
	if e.ID == "" {
		return fmt.Errorf("save emblem: empty id")
	}
	if e.CreatedAt == "" {
		e.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	primitives, err := json.Marshal(nonNil(e.Primitives))
	if err != nil {
		return fmt.Errorf("encode primitives: %w", err)
	}
	logData, err := json.Marshal(nonNil(e.Log))
	if err != nil {
		return fmt.Errorf("encode log: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO emblems (id, name, source, primitives, log, warnings, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, e.ID, e.Name, e.Source, string(primitives), string(logData), e.Warnings, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert emblem: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.Emblem, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, source, primitives, log, warnings, created_at
        FROM emblems
        WHERE id = ?
    `, id)

	e, err := scanEmblem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// List возвращает до limit эмблем, новые первыми.
func (r *Repository) List(ctx context.Context, limit int) ([]models.Emblem, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, source, primitives, log, warnings, created_at
        FROM emblems
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("list emblems: %w", err)
	}
	defer rows.Close()

	out := []models.Emblem{}
	for rows.Next() {
		e, err := scanEmblem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM emblems WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete emblem: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmblem(s scanner) (*models.Emblem, error) {
	var (
		e                   models.Emblem
		primitives, logData string
	)
	if err := s.Scan(&e.ID, &e.Name, &e.Source, &primitives, &logData, &e.Warnings, &e.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(primitives), &e.Primitives); err != nil {
		return nil, fmt.Errorf("decode primitives of %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(logData), &e.Log); err != nil {
		return nil, fmt.Errorf("decode log of %s: %w", e.ID, err)
	}
	return &e, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context, migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// OpenSQLite открывает базу по пути dbPath, создавая её при необходимости.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
