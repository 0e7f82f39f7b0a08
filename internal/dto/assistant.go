package dto

// HRQueryRequest is a natural-language question from HR.
type HRQueryRequest struct {
	Query string `json:"query" validate:"required,max=1000"`
}

// ChatTurnRequest is one earlier exchange sent back by the chat client.
type ChatTurnRequest struct {
	User string `json:"user" validate:"max=2000"`
	Bot  string `json:"bot" validate:"max=4000"`
}

// ChatRequest is an employee chat message plus optional history.
type ChatRequest struct {
	Message string            `json:"message" validate:"required,max=2000"`
	History []ChatTurnRequest `json:"history" validate:"max=50,dive"`
}
