package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details *ErrorDetails `json:"details,omitempty"`
}

// ErrorDetails cifras de un rechazo de stock (INSUFFICIENT_STOCK, NEGATIVE_STOCK,
// NON_POSITIVE_QUANTITY).
type ErrorDetails struct {
	ProductID    int64 `json:"product_id"`
	CurrentStock int64 `json:"current_stock"`
	Requested    int64 `json:"requested"`
	Available    int64 `json:"available"`
	WouldBe      int64 `json:"would_be"`
}
