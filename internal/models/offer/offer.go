package offer

import "time"

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Accepted and rejected are terminal; a rejected offer stays visible,
// it is never deleted.
var validNext = map[string]map[string]bool{
	StatusPending:  {StatusAccepted: true, StatusRejected: true},
	StatusAccepted: {},
	StatusRejected: {},
}

func CanTransition(from, to string) bool {
	return validNext[from][to]
}

type Offer struct {
	Id              string    `json:"id"`
	RequestId       string    `json:"request_id"`
	SellerId        string    `json:"seller_id"`
	Price           float64   `json:"price"`
	Description     string    `json:"description"`
	DeliveryDetails string    `json:"delivery_details"`
	Terms           string    `json:"terms,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`

	// Populated on reads where the counterparty matters, empty otherwise.
	SellerName     string `json:"seller_name,omitempty"`
	SellerLocation string `json:"seller_location,omitempty"`
	RequestTitle   string `json:"request_title,omitempty"`
}

type CreateRequest struct {
	RequestId       string  `json:"request_id" validate:"required"`
	Price           float64 `json:"price" validate:"required,gt=0"`
	Description     string  `json:"description" validate:"required"`
	DeliveryDetails string  `json:"delivery_details" validate:"required"`
	Terms           string  `json:"terms,omitempty"`
}

// AcceptResult is what an accept transition leaves behind: the accepted
// offer, its request in offer_accepted state, and every sibling rejected.
type AcceptResult struct {
	Offer         Offer  `json:"offer"`
	RequestId     string `json:"request_id"`
	RequestStatus string `json:"request_status"`
	RejectedCount int    `json:"rejected_count"`
}
