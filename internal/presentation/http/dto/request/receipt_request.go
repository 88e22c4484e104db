package request

// SelectClientRequest starts a receipt for a client.
type SelectClientRequest struct {
	ClientID string `json:"client_id" binding:"required,uuid"`
}

// AdminCredentials authorizes one special-product add for a non-admin
// operator.
type AdminCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AddLineRequest adds a product to the cart. Quantity is a decimal string
// with at most three fractional digits.
type AddLineRequest struct {
	ProductID string            `json:"product_id" binding:"required,uuid"`
	Quantity  string            `json:"quantity" binding:"required"`
	Admin     *AdminCredentials `json:"admin"`
}

// UpdateLineRequest changes the quantity of a cart line.
type UpdateLineRequest struct {
	Quantity string `json:"quantity" binding:"required"`
}

// ListInvoicesRequest filters the invoice history.
type ListInvoicesRequest struct {
	Page     int    `form:"page"`
	PerPage  int    `form:"per_page"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
}
