package message

import "time"

type Message struct {
	Id         string    `json:"id"`
	RequestId  string    `json:"request_id"`
	OfferId    string    `json:"offer_id,omitempty"`
	SenderId   string    `json:"sender_id"`
	ReceiverId string    `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateRequest struct {
	RequestId  string `json:"request_id" validate:"required"`
	OfferId    string `json:"offer_id,omitempty"`
	ReceiverId string `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required"`
}
