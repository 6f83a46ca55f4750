package model

import (
	"encoding/json"
	"errors"
	"time"
)

type QuestionType string

const (
	QuestionText   QuestionType = "text"
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
)

// HasOptions reports whether answers to this question type select options.
func (t QuestionType) HasOptions() bool {
	return t == SingleChoice || t == MultipleChoice
}

type Survey struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	CreatedByName string     `json:"createdByName,omitempty"`
	ResponseCount int        `json:"responseCount"`
	Questions     []Question `json:"questions,omitempty"`
}

type Question struct {
	ID           string       `json:"id"`
	Text         string       `json:"text"`
	Type         QuestionType `json:"type"`
	DisplayOrder int          `json:"displayOrder"`
	Options      []Option     `json:"options"`
}

type Option struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	DisplayOrder int    `json:"displayOrder"`
}

type CreateSurveyRequest struct {
	Title       string          `json:"title" validate:"notblank,max=255"`
	Description string          `json:"description"`
	IsActive    bool            `json:"isActive"`
	Questions   []QuestionInput `json:"questions" validate:"dive"`
}

// UpdateSurveyRequest is a partial patch: nil fields are left untouched.
// A non-nil Questions slice, even an empty one, replaces every question.
type UpdateSurveyRequest struct {
	Title       *string         `json:"title" validate:"omitnil,notblank,max=255"`
	Description *string         `json:"description"`
	IsActive    *bool           `json:"isActive"`
	Questions   []QuestionInput `json:"questions" validate:"omitnil,dive"`
}

type QuestionInput struct {
	Text    string        `json:"text" validate:"notblank"`
	Type    QuestionType  `json:"type" validate:"oneof=text single_choice multiple_choice"`
	Options []OptionInput `json:"options" validate:"required_unless=Type text,dive"`
}

// OptionInput accepts either a bare string or an object with a text field.
type OptionInput struct {
	Text string `json:"text" validate:"notblank"`
}

func (o *OptionInput) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		o.Text = text
		return nil
	}
	var obj struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Text == nil {
		return errors.New("option must be a string or an object with a text field")
	}
	o.Text = *obj.Text
	return nil
}

type SubmitRequest struct {
	ParticipantName string        `json:"participantName" validate:"notblank,max=255"`
	Answers         []AnswerInput `json:"answers" validate:"required,min=1"`
}

// AnswerInput carries one of TextValue, SelectedOptionID or
// SelectedOptionIDs depending on the question type.
type AnswerInput struct {
	QuestionID        string   `json:"questionId"`
	TextValue         *string  `json:"textValue,omitempty"`
	SelectedOptionID  *string  `json:"selectedOptionId,omitempty"`
	SelectedOptionIDs []string `json:"selectedOptionIds,omitempty"`
}

type SubmitResponse struct {
	SubmissionID string `json:"submissionId"`
	Message      string `json:"message"`
}
