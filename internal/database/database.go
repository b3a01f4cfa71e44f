package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool using the provided DSN.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

// EnsureSchema creates the certificate tables if needed. Keeping the
// migration in code lets docker-compose bootstrap a working stack.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS certificates (
	id TEXT PRIMARY KEY,
	certificate_type TEXT NOT NULL,
	institution_name TEXT,
	student_name TEXT,
	course_name TEXT,
	extracted_text TEXT,
	normalized_text TEXT,
	issue_date TIMESTAMPTZ,
	file_name TEXT NOT NULL,
	file_type TEXT NOT NULL,
	file_size BIGINT NOT NULL,
	object_key TEXT NOT NULL,
	qr_object_key TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_certificates_type ON certificates(certificate_type);
CREATE INDEX IF NOT EXISTS idx_certificates_institution ON certificates(institution_name);
CREATE INDEX IF NOT EXISTS idx_certificates_created ON certificates(created_at);

CREATE TABLE IF NOT EXISTS verification_logs (
	id TEXT PRIMARY KEY,
	certificate_id TEXT NOT NULL,
	result TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	client_ip TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verification_logs_created ON verification_logs(created_at);`
	_, err := pool.Exec(ctx, stmt)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
