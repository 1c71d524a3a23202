package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
	Code  string `json:"code,omitempty" example:"already_claimed"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// FieldError is one failed constraint of a request body.
type FieldError struct {
	Field   string `json:"field" example:"name"`
	Tag     string `json:"tag" example:"required"`
	Message string `json:"message" example:"name is required"`
}

type ValidationErrorResponse struct {
	Error   string       `json:"error" example:"validation failed"`
	Details []FieldError `json:"details"`
}
