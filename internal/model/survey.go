package model

import "encoding/json"

// Survey is a survey definition created by the operator
type Survey struct {
	ID            string     `json:"_id" bson:"_id,omitempty"`
	Title         string     `json:"title" bson:"title" validate:"required"`
	Description   string     `json:"description" bson:"description" validate:"required"`
	Questions     []Question `json:"questions" bson:"questions" validate:"dive"`
	ResponseCount int        `json:"responseCount" bson:"responseCount"` // incremented once per stored response, never decremented
}

// SurveyPayload is the request body for creating or updating a survey.
// Nil fields were not provided by the client.
type SurveyPayload struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Questions   json.RawMessage `json:"questions"` // list or JSON-encoded string
}

// ListOptions controls survey listing
type ListOptions struct {
	SortBy string // "title", "questions", "responseCount" or empty
	Page   int64
	Limit  int64
}

const (
	SortByTitle         = "title"
	SortByQuestions     = "questions"
	SortByResponseCount = "responseCount"

	DefaultPage  = 1
	DefaultLimit = 10
)
