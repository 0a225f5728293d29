package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImagePlaceholderPrefix marks a scalar answer that waits for an uploaded image
const ImagePlaceholderPrefix = "image_"

// AnswerKind tags the shape of an answer value
type AnswerKind int

const (
	AnswerNone     AnswerKind = iota // no answer and no file
	AnswerScalar                     // text or single choice
	AnswerMultiple                   // multiple choice
	AnswerFile                       // uploaded photo
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerScalar:
		return "scalar"
	case AnswerMultiple:
		return "multiple"
	case AnswerFile:
		return "file"
	default:
		return "none"
	}
}

// AnswerValue is one of Scalar(string), Multiple([]string), File(path) or none.
type AnswerValue struct {
	kind   AnswerKind
	text   string // scalar text or file path
	values []string
}

func Scalar(s string) AnswerValue {
	return AnswerValue{kind: AnswerScalar, text: s}
}

func Multiple(values ...string) AnswerValue {
	return AnswerValue{kind: AnswerMultiple, values: append([]string{}, values...)}
}

func FileRef(path string) AnswerValue {
	return AnswerValue{kind: AnswerFile, text: path}
}

func (v AnswerValue) Kind() AnswerKind { return v.kind }

// Text returns the scalar text, empty for other kinds
func (v AnswerValue) Text() string {
	if v.kind != AnswerScalar {
		return ""
	}
	return v.text
}

// Values returns the selected options of a multiple answer
func (v AnswerValue) Values() []string {
	if v.kind != AnswerMultiple {
		return nil
	}
	return v.values
}

// FilePath returns the public path of a file answer
func (v AnswerValue) FilePath() string {
	if v.kind != AnswerFile {
		return ""
	}
	return v.text
}

// IsImagePlaceholder reports whether the client marked this answer as a pending upload
func (v AnswerValue) IsImagePlaceholder() bool {
	return v.kind == AnswerScalar && strings.HasPrefix(v.text, ImagePlaceholderPrefix)
}

// Answer is one response entry. Question holds the label copied from the survey.
type Answer struct {
	Question string
	Value    AnswerValue
}

// Response is one respondent submission
type Response struct {
	ID        string             `json:"_id" bson:"_id,omitempty"`
	SurveyID  primitive.ObjectID `json:"surveyId" bson:"surveyId"`
	Answers   []Answer           `json:"answers" bson:"answers"`
	TimeSpent float64            `json:"timeSpent" bson:"timeSpent"` // seconds
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// SubmitResponseResult is returned after a successful submission
type SubmitResponseResult struct {
	Success bool         `json:"success"`
	Stats   *SurveyStats `json:"stats"`
}

var ErrMalformedAnswer = errors.New("malformed answer")

// answerDoc is the stored and transported shape: {question, answer?, filePath?}
type answerDoc struct {
	Question string      `json:"question" bson:"question"`
	Answer   interface{} `json:"answer,omitempty" bson:"answer,omitempty"`
	FilePath string      `json:"filePath,omitempty" bson:"filePath,omitempty"`
}

func (a Answer) doc() answerDoc {
	d := answerDoc{Question: a.Question}
	switch a.Value.kind {
	case AnswerScalar:
		d.Answer = a.Value.text
	case AnswerMultiple:
		d.Answer = append([]string{}, a.Value.values...)
	case AnswerFile:
		d.FilePath = a.Value.text
	}
	return d
}

func (a Answer) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.doc())
}

// UnmarshalJSON accepts a string, a list of strings or no answer at all.
// Any other answer shape is rejected.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("%w: entry is not an object", ErrMalformedAnswer)
	}
	var d answerDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
	}
	value, err := valueFromDoc(d.Answer, d.FilePath, true)
	if err != nil {
		return err
	}
	a.Question = d.Question
	a.Value = value
	return nil
}

func (a Answer) MarshalBSON() ([]byte, error) {
	return bson.Marshal(a.doc())
}

// UnmarshalBSON is lenient: stored documents written by older clients may
// carry numbers or mixed lists, which are kept as their string form.
func (a *Answer) UnmarshalBSON(data []byte) error {
	var d answerDoc
	if err := bson.Unmarshal(data, &d); err != nil {
		return err
	}
	value, err := valueFromDoc(d.Answer, d.FilePath, false)
	if err != nil {
		return err
	}
	a.Question = d.Question
	a.Value = value
	return nil
}

func valueFromDoc(answer interface{}, filePath string, strict bool) (AnswerValue, error) {
	switch v := answer.(type) {
	case nil:
		if filePath != "" {
			return FileRef(filePath), nil
		}
		return AnswerValue{}, nil
	case string:
		if v == "" && filePath != "" {
			return FileRef(filePath), nil
		}
		return Scalar(v), nil
	case []interface{}:
		return multipleFromList(v, strict)
	case primitive.A:
		return multipleFromList(v, strict)
	default:
		if strict {
			return AnswerValue{}, fmt.Errorf("%w: unsupported answer type %T", ErrMalformedAnswer, answer)
		}
		return Scalar(fmt.Sprint(v)), nil
	}
}

func multipleFromList(items []interface{}, strict bool) (AnswerValue, error) {
	values := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			if strict {
				return AnswerValue{}, fmt.Errorf("%w: list items must be strings", ErrMalformedAnswer)
			}
			s = fmt.Sprint(item)
		}
		values = append(values, s)
	}
	return AnswerValue{kind: AnswerMultiple, values: values}, nil
}

// ParseAnswers decodes the transport encoding of an answer list
func ParseAnswers(encoded string) ([]Answer, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, fmt.Errorf("%w: answers are missing", ErrMalformedAnswer)
	}
	var answers []Answer
	if err := json.Unmarshal([]byte(encoded), &answers); err != nil {
		if errors.Is(err, ErrMalformedAnswer) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
	}
	if answers == nil {
		return nil, fmt.Errorf("%w: answers must be an array", ErrMalformedAnswer)
	}
	return answers, nil
}

// AttachFiles replaces image placeholders with file references, in order.
// The n-th placeholder receives the n-th path; placeholders without a
// remaining path and all other answers stay untouched. It returns the
// number of paths consumed.
func AttachFiles(answers []Answer, paths []string) int {
	cursor := 0
	for i := range answers {
		if cursor >= len(paths) {
			break
		}
		if answers[i].Value.IsImagePlaceholder() {
			answers[i].Value = FileRef(paths[cursor])
			cursor++
		}
	}
	return cursor
}
