package request

import "time"

const (
	StatusOpen          = "open"
	StatusOfferAccepted = "offer_accepted"
	StatusClosed        = "closed"
)

// validNext is the whole request lifecycle: both terminal states have no exits.
var validNext = map[string]map[string]bool{
	StatusOpen:          {StatusOfferAccepted: true, StatusClosed: true},
	StatusOfferAccepted: {},
	StatusClosed:        {},
}

func CanTransition(from, to string) bool {
	return validNext[from][to]
}

type Request struct {
	Id          string    `json:"id"`
	CustomerId  string    `json:"customer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	BudgetMin   float64   `json:"budget_min"`
	BudgetMax   float64   `json:"budget_max"`
	Categories  []string  `json:"categories"`
	Location    string    `json:"location,omitempty"`
	Timeline    string    `json:"timeline,omitempty"`
	Quantity    int       `json:"quantity"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	BudgetMin   float64  `json:"budget_min" validate:"gte=0"`
	BudgetMax   float64  `json:"budget_max" validate:"gte=0"`
	Categories  []string `json:"categories" validate:"required,min=1"`
	Location    string   `json:"location,omitempty"`
	Timeline    string   `json:"timeline,omitempty"`
	Quantity    int      `json:"quantity" validate:"gte=1"`
}

// BrowseFilter narrows the open-request listing for sellers.
type BrowseFilter struct {
	Category  string
	MinBudget *float64
	MaxBudget *float64
	Location  string
}
