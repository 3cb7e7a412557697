package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"salesforecast/utils"
)

// --- JWT & Auth ---

type JwtClaims struct {
	UserID   int64    `json:"userId"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token carries the given role.
func (c *JwtClaims) HasRole(role string) bool {
	return utils.HasRole(c.Roles, role)
}

type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// --- Core Models ---

// User is an account that can sign in to view forecasts or record sales.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Roles        []string   `json:"roles"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// SaleRecord is a single day's sold quantity for one item.
type SaleRecord struct {
	ItemID   int64     `json:"item_id"`
	SaleDate time.Time `json:"sale_date"`
	Quantity int       `json:"quantity"`
}

// Sale is a stored SaleRecord with its row id.
type Sale struct {
	ID int64 `json:"id"`
	SaleRecord
}

// --- API Request/Response Structs ---

// CreateSaleRequest defines the body for recording a sale.
// Pointers distinguish missing fields from zero values.
type CreateSaleRequest struct {
	SaleDate *string `json:"sale_date" form:"sale_date"`
	Quantity *int    `json:"quantity" form:"quantity"`
	ItemID   *int64  `json:"item_id" form:"item_id"`
}

// PastSale is the presentation shape of a historical sale.
type PastSale struct {
	ItemID   int64  `json:"item_id"`
	Date     string `json:"date"`
	Quantity int    `json:"quantity"`
}
