package model

// SurveyStats is the derived summary of all responses to one survey
type SurveyStats struct {
	AvgTime       float64       `json:"avgTime"`       // mean timeSpent in seconds, 0 without responses
	FillsByPeriod FillsByPeriod `json:"fillsByPeriod"` // overlapping windows measured from now
	QuestionStats QuestionStats `json:"questionStats"` // question label -> answer value -> count
}

// FillsByPeriod counts responses created within the last day, week and month
type FillsByPeriod struct {
	Day   int `json:"day"`
	Week  int `json:"week"`
	Month int `json:"month"`
}

// QuestionStats is a frequency table per question label
type QuestionStats map[string]map[string]int

// Add increments the count of value for question
func (qs QuestionStats) Add(question, value string) {
	counts, ok := qs[question]
	if !ok {
		counts = make(map[string]int)
		qs[question] = counts
	}
	counts[value]++
}

// StatsKey returns the frequency-table key of a non-multiple answer:
// the scalar text if non-empty, else the file path, else "".
func (v AnswerValue) StatsKey() string {
	switch v.kind {
	case AnswerScalar, AnswerFile:
		return v.text
	default:
		return ""
	}
}
