package postgres

import (
	"database/sql"
	"fmt"

	"reverse_market/internal/models/message"

	"github.com/google/uuid"
)

func (s *Storage) SaveMessage(senderId string, req message.CreateRequest) (message.Message, error) {
	const op = "storage.postgres.SaveMessage"

	var ownerId string
	err := s.db.QueryRow(`SELECT customer_id FROM requests WHERE id = $1`, req.RequestId).Scan(&ownerId)
	if err != nil {
		if err == sql.ErrNoRows {
			return message.Message{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return message.Message{}, fmt.Errorf("%s: %w", op, err)
	}

	// one side of the conversation must be the request owner
	if senderId != ownerId && req.ReceiverId != ownerId {
		return message.Message{}, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	var offerId any
	if req.OfferId != "" {
		offerId = req.OfferId
	}

	var result message.Message
	var storedOfferId sql.NullString
	err = s.db.QueryRow(`
	INSERT INTO messages(id, request_id, offer_id, sender_id, receiver_id, content)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, request_id, offer_id, sender_id, receiver_id, content, created_at
	`,
		uuid.NewString(),
		req.RequestId,
		offerId,
		senderId,
		req.ReceiverId,
		req.Content,
	).Scan(
		&result.Id, &result.RequestId, &storedOfferId,
		&result.SenderId, &result.ReceiverId, &result.Content, &result.CreatedAt,
	)
	if err != nil {
		return message.Message{}, fmt.Errorf("%s: %w", op, err)
	}
	result.OfferId = storedOfferId.String

	return result, nil
}

func (s *Storage) ReadConversation(requestId, userId, otherUserId string, limit int) ([]message.Message, error) {
	const op = "storage.postgres.ReadConversation"
	result := make([]message.Message, 0)

	stmt, err := s.db.Prepare(`
	SELECT id, request_id, offer_id, sender_id, receiver_id, content, created_at
	FROM messages
	WHERE request_id = $1
	AND ((sender_id = $2 AND receiver_id = $3) OR (sender_id = $3 AND receiver_id = $2))
	ORDER BY created_at ASC
	LIMIT $4
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := stmt.Query(requestId, userId, otherUserId, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg message.Message
		var offerId sql.NullString
		err := rows.Scan(
			&msg.Id, &msg.RequestId, &offerId,
			&msg.SenderId, &msg.ReceiverId, &msg.Content, &msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		msg.OfferId = offerId.String
		result = append(result, msg)
	}

	return result, rows.Err()
}
