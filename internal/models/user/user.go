package user

import "time"

const (
	TypeCustomer = "customer"
	TypeSeller   = "seller"
)

const (
	SubscriptionTrial   = "trial"
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

const TrialPeriod = 30 * 24 * time.Hour

type User struct {
	Id                  string    `json:"id"`
	Email               string    `json:"email"`
	FullName            string    `json:"full_name"`
	UserType            string    `json:"user_type"`
	Phone               string    `json:"phone,omitempty"`
	Location            string    `json:"location,omitempty"`
	BusinessName        string    `json:"business_name,omitempty"`
	BusinessDescription string    `json:"business_description,omitempty"`
	IsVerified          bool      `json:"is_verified"`
	SubscriptionStatus  string    `json:"subscription_status"`
	TrialExpiresAt      time.Time `json:"trial_expires_at"`
	CreatedAt           time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Email               string `json:"email" validate:"required,email"`
	Password            string `json:"password" validate:"required,min=6"`
	FullName            string `json:"full_name" validate:"required"`
	UserType            string `json:"user_type" validate:"required"`
	Phone               string `json:"phone,omitempty"`
	Location            string `json:"location,omitempty"`
	BusinessName        string `json:"business_name,omitempty"`
	BusinessDescription string `json:"business_description,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

func ValidType(userType string) bool {
	return userType == TypeCustomer || userType == TypeSeller
}
