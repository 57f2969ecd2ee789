package postgres

import (
	"database/sql"
	"fmt"

	"reverse_market/internal/models/offer"
	"reverse_market/internal/models/request"
	"reverse_market/internal/models/user"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SaveOffer inserts a pending offer. The request row is locked for the
// duration so an offer can never land on a request that is concurrently
// leaving the open state.
func (s *Storage) SaveOffer(sellerId string, req offer.CreateRequest) (offer.Offer, error) {
	const op = "storage.postgres.SaveOffer"

	tx, err := s.db.Begin()
	if err != nil {
		return offer.Offer{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow(`SELECT status FROM requests WHERE id = $1 FOR UPDATE`, req.RequestId).
		Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return offer.Offer{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return offer.Offer{}, fmt.Errorf("%s: %w", op, err)
	}
	if status != request.StatusOpen {
		return offer.Offer{}, fmt.Errorf("%s: %w", op, ErrInvalidState)
	}

	var result offer.Offer
	err = tx.QueryRow(`
	INSERT INTO offers(id, request_id, seller_id, price, description, delivery_details, terms)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, request_id, seller_id, price, description, delivery_details, terms, status, created_at
	`,
		uuid.NewString(),
		req.RequestId,
		sellerId,
		req.Price,
		req.Description,
		req.DeliveryDetails,
		req.Terms,
	).Scan(
		&result.Id, &result.RequestId, &result.SellerId, &result.Price,
		&result.Description, &result.DeliveryDetails, &result.Terms,
		&result.Status, &result.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return offer.Offer{}, fmt.Errorf("%s: you already have an offer for this request: %w", op, ErrBadRequest)
		}
		return offer.Offer{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return offer.Offer{}, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func (s *Storage) ReadMyOffers(sellerId string, limit, offset int) ([]offer.Offer, error) {
	const op = "storage.postgres.ReadMyOffers"
	result := make([]offer.Offer, 0)

	stmt, err := s.db.Prepare(`
	SELECT o.id, o.request_id, o.seller_id, o.price, o.description, o.delivery_details,
		o.terms, o.status, o.created_at, r.title
	FROM offers o
	INNER JOIN requests r
	ON o.request_id = r.id
	WHERE o.seller_id = $1
	ORDER BY o.created_at DESC
	LIMIT $2
	OFFSET $3
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := stmt.Query(sellerId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o offer.Offer
		err := rows.Scan(
			&o.Id, &o.RequestId, &o.SellerId, &o.Price, &o.Description,
			&o.DeliveryDetails, &o.Terms, &o.Status, &o.CreatedAt, &o.RequestTitle,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}

	return result, rows.Err()
}

// ReadRequestOffers is scoped by identity: the owning customer sees every
// offer on the request, a seller sees only the offers it authored, anyone
// else is refused.
func (s *Storage) ReadRequestOffers(requestId, callerId, callerType string) ([]offer.Offer, error) {
	const op = "storage.postgres.ReadRequestOffers"
	result := make([]offer.Offer, 0)

	var ownerId string
	err := s.db.QueryRow(`SELECT customer_id FROM requests WHERE id = $1`, requestId).Scan(&ownerId)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
	SELECT o.id, o.request_id, o.seller_id, o.price, o.description, o.delivery_details,
		o.terms, o.status, o.created_at,
		CASE WHEN u.business_name <> '' THEN u.business_name ELSE u.full_name END,
		u.location
	FROM offers o
	INNER JOIN users u
	ON o.seller_id = u.id
	WHERE o.request_id = $1`
	args := []any{requestId}

	switch {
	case callerType == user.TypeCustomer && callerId == ownerId:
		// full view
	case callerType == user.TypeSeller:
		query += ` AND o.seller_id = $2`
		args = append(args, callerId)
	default:
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	query += ` ORDER BY o.created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o offer.Offer
		err := rows.Scan(
			&o.Id, &o.RequestId, &o.SellerId, &o.Price, &o.Description,
			&o.DeliveryDetails, &o.Terms, &o.Status, &o.CreatedAt,
			&o.SellerName, &o.SellerLocation,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}

	return result, rows.Err()
}

// AcceptOffer runs the whole accept transition in one transaction: the
// offer goes to accepted, its request to offer_accepted, every pending
// sibling to rejected. The request row is locked first, so two customers
// racing on the same request serialize here and the loser gets
// ErrInvalidState.
func (s *Storage) AcceptOffer(offerId, callerId string) (offer.AcceptResult, error) {
	const op = "storage.postgres.AcceptOffer"

	tx, err := s.db.Begin()
	if err != nil {
		return offer.AcceptResult{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var requestId string
	err = tx.QueryRow(`SELECT request_id FROM offers WHERE id = $1`, offerId).Scan(&requestId)
	if err != nil {
		if err == sql.ErrNoRows {
			return offer.AcceptResult{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return offer.AcceptResult{}, fmt.Errorf("%s: %w", op, err)
	}

	var ownerId, requestStatus string
	err = tx.QueryRow(`SELECT customer_id, status FROM requests WHERE id = $1 FOR UPDATE`, requestId).
		Scan(&ownerId, &requestStatus)
	if err != nil {
		return offer.AcceptResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if ownerId != callerId {
		return offer.AcceptResult{}, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	// re-read under the request lock, sibling fan-out may have hit it
	var offerStatus string
	err = tx.QueryRow(`SELECT status FROM offers WHERE id = $1 FOR UPDATE`, offerId).Scan(&offerStatus)
	if err != nil {
		return offer.AcceptResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if !offer.CanTransition(offerStatus, offer.StatusAccepted) ||
		!request.CanTransition(requestStatus, request.StatusOfferAccepted) {
		return offer.AcceptResult{}, fmt.Errorf("%s: %w", op, ErrInvalidState)
	}

	var result offer.AcceptResult
	err = tx.QueryRow(`
	UPDATE offers SET status = $1 WHERE id = $2
	RETURNING id, request_id, seller_id, price, description, delivery_details, terms, status, created_at
	`, offer.StatusAccepted, offerId).Scan(
		&result.Offer.Id, &result.Offer.RequestId, &result.Offer.SellerId, &result.Offer.Price,
		&result.Offer.Description, &result.Offer.DeliveryDetails, &result.Offer.Terms,
		&result.Offer.Status, &result.Offer.CreatedAt,
	)
	if err != nil {
		return offer.AcceptResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res, err := tx.Exec(`
	UPDATE offers SET status = $1
	WHERE request_id = $2 AND id <> $3 AND status = $4
	`, offer.StatusRejected, requestId, offerId, offer.StatusPending)
	if err != nil {
		return offer.AcceptResult{}, fmt.Errorf("%s: %w", op, err)
	}
	rejected, err := res.RowsAffected()
	if err != nil {
		return offer.AcceptResult{}, fmt.Errorf("%s: %w", op, err)
	}

	err = tx.QueryRow(`
	UPDATE requests SET status = $1 WHERE id = $2
	RETURNING status
	`, request.StatusOfferAccepted, requestId).Scan(&result.RequestStatus)
	if err != nil {
		return offer.AcceptResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return offer.AcceptResult{}, fmt.Errorf("%s: %w", op, err)
	}

	result.RequestId = requestId
	result.RejectedCount = int(rejected)

	return result, nil
}

func (s *Storage) ReadSellerStats(sellerId string) (total, accepted, pending int, err error) {
	const op = "storage.postgres.ReadSellerStats"

	err = s.db.QueryRow(`
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'accepted'),
		COUNT(*) FILTER (WHERE status = 'pending')
	FROM offers
	WHERE seller_id = $1
	`, sellerId).Scan(&total, &accepted, &pending)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	return total, accepted, pending, nil
}
