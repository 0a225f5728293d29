package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// QuestionType defines the type of question
type QuestionType string

const (
	QuestionTypeText     QuestionType = "text"     // Free text, scalar answer
	QuestionTypeSingle   QuestionType = "single"   // One option, scalar answer
	QuestionTypeMultiple QuestionType = "multiple" // Several options, list answer
	QuestionTypePhoto    QuestionType = "photo"    // Uploaded image, file path answer
)

// HasOptions reports whether options are meaningful for the type
func (t QuestionType) HasOptions() bool {
	return t == QuestionTypeSingle || t == QuestionTypeMultiple
}

// Question is one item of a survey. Order inside Survey.Questions is the display order.
type Question struct {
	Type     QuestionType `json:"type" bson:"type" validate:"required,oneof=text single multiple photo"`
	Question string       `json:"question" bson:"question" validate:"required"`
	Options  []string     `json:"options,omitempty" bson:"options,omitempty"` // single/multiple only
}

var (
	ErrQuestionsNotList  = errors.New("questions must be an array")
	ErrInvalidQuestion   = errors.New("invalid question format")
	ErrQuestionsEncoding = errors.New("questions is not valid JSON")
)

// QuestionsProvided reports whether the raw payload carries a questions value
func QuestionsProvided(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// DecodeQuestions decodes a questions payload that is either a JSON list or a
// string holding a JSON-encoded list.
func DecodeQuestions(raw json.RawMessage) ([]Question, error) {
	data := bytes.TrimSpace(raw)
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return nil, ErrQuestionsEncoding
		}
		data = bytes.TrimSpace([]byte(encoded))
	}
	if len(data) == 0 || data[0] != '[' {
		if len(data) > 0 && !json.Valid(data) {
			return nil, ErrQuestionsEncoding
		}
		return nil, ErrQuestionsNotList
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, ErrQuestionsEncoding
	}

	questions := make([]Question, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, ErrInvalidQuestion
		}
		var q Question
		if err := json.Unmarshal(item, &q); err != nil {
			return nil, ErrInvalidQuestion
		}
		questions = append(questions, q.normalized())
	}
	return questions, nil
}

func (q Question) normalized() Question {
	if !q.Type.HasOptions() {
		q.Options = nil
	}
	return q
}
