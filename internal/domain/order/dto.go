package order

// CreateRequest is the body for placing a prepaid order
type CreateRequest struct {
	FuelType       string  `json:"fuel_type" validate:"required,fuel_type"`
	Liters         float64 `json:"liters" validate:"required,gt=0"`
	CreditsApplied float64 `json:"credits_applied" validate:"omitempty,gte=0"`
	PaymentMethod  string  `json:"payment_method" validate:"required,payment_method"`
}

// CancelRequest optionally carries why the order was cancelled
type CancelRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// VerifyRequest carries the scanned QR content
type VerifyRequest struct {
	QRContent string `json:"qr_content" validate:"required"`
}

// Response decorates an order with its QR payload for the client
type Response struct {
	*Order
	QRContent string `json:"qr_content"`
}

// ToResponse wraps an order for API output
func ToResponse(o *Order) *Response {
	return &Response{Order: o, QRContent: QRContent(o.ID)}
}
