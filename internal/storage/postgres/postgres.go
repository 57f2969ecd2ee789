package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrUserExists   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
)

type Storage struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		user_type VARCHAR(20) NOT NULL,
		phone VARCHAR(50) NOT NULL DEFAULT '',
		location VARCHAR(255) NOT NULL DEFAULT '',
		business_name VARCHAR(255) NOT NULL DEFAULT '',
		business_description VARCHAR(1000) NOT NULL DEFAULT '',
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		subscription_status VARCHAR(20) NOT NULL DEFAULT 'trial',
		trial_expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS requests (
		id UUID PRIMARY KEY,
		customer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		description VARCHAR(2000) NOT NULL,
		budget_min DOUBLE PRECISION NOT NULL,
		budget_max DOUBLE PRECISION NOT NULL,
		categories TEXT[] NOT NULL,
		location VARCHAR(255) NOT NULL DEFAULT '',
		timeline VARCHAR(255) NOT NULL DEFAULT '',
		quantity INT NOT NULL DEFAULT 1,
		status VARCHAR(20) NOT NULL DEFAULT 'open',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CHECK (budget_min >= 0 AND budget_min <= budget_max),
		CHECK (quantity >= 1)
	);`,
	`CREATE TABLE IF NOT EXISTS offers (
		id UUID PRIMARY KEY,
		request_id UUID NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
		seller_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		price DOUBLE PRECISION NOT NULL CHECK (price > 0),
		description VARCHAR(2000) NOT NULL,
		delivery_details VARCHAR(1000) NOT NULL,
		terms VARCHAR(1000) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (request_id, seller_id)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS one_accepted_offer_per_request
		ON offers(request_id) WHERE status = 'accepted';`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		request_id UUID NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
		offer_id UUID REFERENCES offers(id) ON DELETE SET NULL,
		sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		receiver_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content VARCHAR(2000) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
