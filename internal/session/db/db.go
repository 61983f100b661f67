package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ticketly-client/internal/models"
	"ticketly-client/internal/session"
)

type sessionRow struct {
	bun.BaseModel `bun:"table:sessions"`

	Profile   string    `bun:"profile,pk"`
	Token     string    `bun:"token,notnull"`
	TokenType string    `bun:"token_type"`
	UserJSON  string    `bun:"user_json"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	ExpiresAt time.Time `bun:"expires_at"`
}

// DB is a session.Store backed by a local SQLite file.
type DB struct {
	Bun *bun.DB
}

// Open creates the database file and its directory if needed, then migrates.
func Open(ctx context.Context, path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	d := &DB{Bun: bun.NewDB(sqldb, sqlitedialect.New())}
	if err := d.Migrate(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().Model((*sessionRow)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("create sessions table failed: %w", err)
	}
	return nil
}

func (d *DB) Close() error {
	return d.Bun.Close()
}

func (d *DB) Load(ctx context.Context, profile string) (*session.Record, error) {
	var row sessionRow
	err := d.Bun.NewSelect().
		Model(&row).
		Where("profile = ?", profile).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec := &session.Record{
		Profile:   row.Profile,
		Token:     row.Token,
		TokenType: row.TokenType,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}
	if row.UserJSON != "" {
		var user models.User
		if err := json.Unmarshal([]byte(row.UserJSON), &user); err != nil {
			return nil, fmt.Errorf("failed to decode stored user: %w", err)
		}
		rec.User = &user
	}
	return rec, nil
}

func (d *DB) Save(ctx context.Context, rec *session.Record) error {
	row := sessionRow{
		Profile:   rec.Profile,
		Token:     rec.Token,
		TokenType: rec.TokenType,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}
	if rec.User != nil {
		data, err := json.Marshal(rec.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		row.UserJSON = string(data)
	}

	_, err := d.Bun.NewInsert().
		Model(&row).
		On("CONFLICT (profile) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("token_type = EXCLUDED.token_type").
		Set("user_json = EXCLUDED.user_json").
		Set("created_at = EXCLUDED.created_at").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	return err
}

func (d *DB) Delete(ctx context.Context, profile string) error {
	_, err := d.Bun.NewDelete().
		Model((*sessionRow)(nil)).
		Where("profile = ?", profile).
		Exec(ctx)
	return err
}
