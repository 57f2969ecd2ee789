package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"reverse_market/internal/models/user"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

func (s *Storage) SaveUser(req user.RegisterRequest, passwordHash string) (user.User, error) {
	const op = "storage.postgres.SaveUser"
	var result user.User

	stmt, err := s.db.Prepare(`
	INSERT INTO users(id, email, password_hash, full_name, user_type, phone, location,
		business_name, business_description, trial_expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, email, full_name, user_type, phone, location, business_name,
		business_description, is_verified, subscription_status, trial_expires_at, created_at
	`)
	if err != nil {
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}

	err = stmt.QueryRow(
		uuid.NewString(),
		req.Email,
		passwordHash,
		req.FullName,
		req.UserType,
		req.Phone,
		req.Location,
		req.BusinessName,
		req.BusinessDescription,
		time.Now().UTC().Add(user.TrialPeriod),
	).Scan(
		&result.Id, &result.Email, &result.FullName, &result.UserType, &result.Phone,
		&result.Location, &result.BusinessName, &result.BusinessDescription,
		&result.IsVerified, &result.SubscriptionStatus, &result.TrialExpiresAt, &result.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return user.User{}, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func (s *Storage) FetchUserByEmail(email string) (user.User, string, error) {
	const op = "storage.postgres.FetchUserByEmail"
	var usr user.User
	var passwordHash string

	stmt, err := s.db.Prepare(`
	SELECT id, email, password_hash, full_name, user_type, phone, location, business_name,
		business_description, is_verified, subscription_status, trial_expires_at, created_at
	FROM users
	WHERE email = $1
	`)
	if err != nil {
		return user.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	err = stmt.QueryRow(email).Scan(
		&usr.Id, &usr.Email, &passwordHash, &usr.FullName, &usr.UserType, &usr.Phone,
		&usr.Location, &usr.BusinessName, &usr.BusinessDescription,
		&usr.IsVerified, &usr.SubscriptionStatus, &usr.TrialExpiresAt, &usr.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return user.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	return usr, passwordHash, nil
}

func (s *Storage) FetchUser(id string) (user.User, error) {
	const op = "storage.postgres.FetchUser"
	var usr user.User

	stmt, err := s.db.Prepare(`
	SELECT id, email, full_name, user_type, phone, location, business_name,
		business_description, is_verified, subscription_status, trial_expires_at, created_at
	FROM users
	WHERE id = $1
	`)
	if err != nil {
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}

	err = stmt.QueryRow(id).Scan(
		&usr.Id, &usr.Email, &usr.FullName, &usr.UserType, &usr.Phone,
		&usr.Location, &usr.BusinessName, &usr.BusinessDescription,
		&usr.IsVerified, &usr.SubscriptionStatus, &usr.TrialExpiresAt, &usr.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return usr, nil
}
