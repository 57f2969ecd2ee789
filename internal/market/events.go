package market

import (
	"encoding/json"
	"time"
)

const (
	EventRequestCreated = "RequestCreated"
	EventRequestClosed  = "RequestClosed"
	EventOfferCreated   = "OfferCreated"
	EventOfferAccepted  = "OfferAccepted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // request id
	Payload       json.RawMessage `json:"payload"`
}

type RequestCreatedPayload struct {
	RequestID  string   `json:"request_id"`
	CustomerID string   `json:"customer_id"`
	Title      string   `json:"title"`
	BudgetMin  float64  `json:"budget_min"`
	BudgetMax  float64  `json:"budget_max"`
	Categories []string `json:"categories"`
}

type RequestClosedPayload struct {
	RequestID     string `json:"request_id"`
	CustomerID    string `json:"customer_id"`
	RejectedCount int    `json:"rejected_count"`
}

type OfferCreatedPayload struct {
	OfferID   string  `json:"offer_id"`
	RequestID string  `json:"request_id"`
	SellerID  string  `json:"seller_id"`
	Price     float64 `json:"price"`
}

type OfferAcceptedPayload struct {
	OfferID       string  `json:"offer_id"`
	RequestID     string  `json:"request_id"`
	SellerID      string  `json:"seller_id"`
	CustomerID    string  `json:"customer_id"`
	Price         float64 `json:"price"`
	RejectedCount int     `json:"rejected_count"`
}
