package postgres

import (
	"database/sql"
	"fmt"

	"reverse_market/internal/models/offer"
	"reverse_market/internal/models/request"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

func (s *Storage) SaveRequest(customerId string, req request.CreateRequest) (request.Request, error) {
	const op = "storage.postgres.SaveRequest"
	var result request.Request
	var categories pq.StringArray

	stmt, err := s.db.Prepare(`
	INSERT INTO requests(id, customer_id, title, description, budget_min, budget_max,
		categories, location, timeline, quantity)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, customer_id, title, description, budget_min, budget_max, categories,
		location, timeline, quantity, status, created_at
	`)
	if err != nil {
		return request.Request{}, fmt.Errorf("%s: %w", op, err)
	}

	err = stmt.QueryRow(
		uuid.NewString(),
		customerId,
		req.Title,
		req.Description,
		req.BudgetMin,
		req.BudgetMax,
		pq.Array(req.Categories),
		req.Location,
		req.Timeline,
		req.Quantity,
	).Scan(
		&result.Id, &result.CustomerId, &result.Title, &result.Description,
		&result.BudgetMin, &result.BudgetMax, &categories,
		&result.Location, &result.Timeline, &result.Quantity, &result.Status, &result.CreatedAt,
	)
	if err != nil {
		return request.Request{}, fmt.Errorf("%s: %w", op, err)
	}
	result.Categories = categories

	return result, nil
}

// ReadOpenRequests is the seller browse view: open requests only, newest
// first, optionally narrowed by category, budget overlap and location.
func (s *Storage) ReadOpenRequests(f request.BrowseFilter, limit, offset int) ([]request.Request, error) {
	const op = "storage.postgres.ReadOpenRequests"
	result := make([]request.Request, 0)

	query := `
	SELECT id, customer_id, title, description, budget_min, budget_max, categories,
		location, timeline, quantity, status, created_at
	FROM requests
	WHERE status = 'open'`
	args := make([]any, 0, 6)

	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(" AND $%d = ANY(categories)", len(args))
	}
	if f.MinBudget != nil {
		args = append(args, *f.MinBudget)
		query += fmt.Sprintf(" AND budget_max >= $%d", len(args))
	}
	if f.MaxBudget != nil {
		args = append(args, *f.MaxBudget)
		query += fmt.Sprintf(" AND budget_min <= $%d", len(args))
	}
	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		query += fmt.Sprintf(" AND location ILIKE $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, req)
	}

	return result, rows.Err()
}

func (s *Storage) ReadMyRequests(customerId string, limit, offset int) ([]request.Request, error) {
	const op = "storage.postgres.ReadMyRequests"
	result := make([]request.Request, 0)

	stmt, err := s.db.Prepare(`
	SELECT id, customer_id, title, description, budget_min, budget_max, categories,
		location, timeline, quantity, status, created_at
	FROM requests
	WHERE customer_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	OFFSET $3
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := stmt.Query(customerId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, req)
	}

	return result, rows.Err()
}

func (s *Storage) ReadRequest(id string) (request.Request, error) {
	const op = "storage.postgres.ReadRequest"

	stmt, err := s.db.Prepare(`
	SELECT id, customer_id, title, description, budget_min, budget_max, categories,
		location, timeline, quantity, status, created_at
	FROM requests
	WHERE id = $1
	`)
	if err != nil {
		return request.Request{}, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := stmt.Query(id)
	if err != nil {
		return request.Request{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return request.Request{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	req, err := scanRequest(rows)
	if err != nil {
		return request.Request{}, fmt.Errorf("%s: %w", op, err)
	}

	return req, nil
}

// CloseRequest withdraws an open request. Pending offers on it become
// rejected in the same transaction.
func (s *Storage) CloseRequest(requestId, customerId string) (request.Request, int, error) {
	const op = "storage.postgres.CloseRequest"

	tx, err := s.db.Begin()
	if err != nil {
		return request.Request{}, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var ownerId, status string
	err = tx.QueryRow(`SELECT customer_id, status FROM requests WHERE id = $1 FOR UPDATE`, requestId).
		Scan(&ownerId, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return request.Request{}, 0, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return request.Request{}, 0, fmt.Errorf("%s: %w", op, err)
	}

	if ownerId != customerId {
		return request.Request{}, 0, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	if !request.CanTransition(status, request.StatusClosed) {
		return request.Request{}, 0, fmt.Errorf("%s: %w", op, ErrInvalidState)
	}

	res, err := tx.Exec(`UPDATE offers SET status = $1 WHERE request_id = $2 AND status = $3`,
		offer.StatusRejected, requestId, offer.StatusPending)
	if err != nil {
		return request.Request{}, 0, fmt.Errorf("%s: %w", op, err)
	}
	rejected, err := res.RowsAffected()
	if err != nil {
		return request.Request{}, 0, fmt.Errorf("%s: %w", op, err)
	}

	var result request.Request
	var categories pq.StringArray
	err = tx.QueryRow(`
	UPDATE requests SET status = $1 WHERE id = $2
	RETURNING id, customer_id, title, description, budget_min, budget_max, categories,
		location, timeline, quantity, status, created_at
	`, request.StatusClosed, requestId).Scan(
		&result.Id, &result.CustomerId, &result.Title, &result.Description,
		&result.BudgetMin, &result.BudgetMax, &categories,
		&result.Location, &result.Timeline, &result.Quantity, &result.Status, &result.CreatedAt,
	)
	if err != nil {
		return request.Request{}, 0, fmt.Errorf("%s: %w", op, err)
	}
	result.Categories = categories

	if err := tx.Commit(); err != nil {
		return request.Request{}, 0, fmt.Errorf("%s: %w", op, err)
	}

	return result, int(rejected), nil
}

func (s *Storage) ReadCustomerStats(customerId string) (total, active, offersReceived int, err error) {
	const op = "storage.postgres.ReadCustomerStats"

	err = s.db.QueryRow(`
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'open'),
		(SELECT COUNT(*) FROM offers o JOIN requests r ON o.request_id = r.id
			WHERE r.customer_id = $1)
	FROM requests
	WHERE customer_id = $1
	`, customerId).Scan(&total, &active, &offersReceived)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	return total, active, offersReceived, nil
}

func scanRequest(rows *sql.Rows) (request.Request, error) {
	var req request.Request
	var categories pq.StringArray

	err := rows.Scan(
		&req.Id, &req.CustomerId, &req.Title, &req.Description,
		&req.BudgetMin, &req.BudgetMax, &categories,
		&req.Location, &req.Timeline, &req.Quantity, &req.Status, &req.CreatedAt,
	)
	if err != nil {
		return request.Request{}, err
	}
	req.Categories = categories

	return req, nil
}
