package dto

type CheckoutRequest struct {
	ProductID string `json:"productId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type AccessResponse struct {
	Active bool `json:"active"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
