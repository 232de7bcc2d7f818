package orders

import "time"

type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	PriceCents     int       `json:"price_cents"`
	AvailableUnits int       `json:"available_units"`
	SoldUnits      int       `json:"sold_units"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Order struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ProductID  string    `json:"product_id"`
	PriceCents int       `json:"price_cents"` // product price snapshot at order time
	Quantity   int       `json:"quantity"`
	Address    string    `json:"address"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Detail is an order joined with the product and user it references.
type Detail struct {
	Order
	ProductName string `json:"product_name"`
	UserName    string `json:"user_name"`
	UserEmail   string `json:"user_email"`
}
