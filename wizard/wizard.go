// Package wizard walks one respondent through a survey: their name first,
// then each question in order, then a single submit.
//
// Moving forward is guarded: the name must not be blank and every question
// must be answered before the next one is shown. Moving back is always
// allowed. Once a submission succeeds the wizard is frozen.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mbolis/gyp-site/model"
)

type State int

const (
	CollectingName State = iota
	AnsweringQuestion
	Submitting
	Submitted
	Failed
)

func (s State) String() string {
	switch s {
	case CollectingName:
		return "CollectingName"
	case AnsweringQuestion:
		return "AnsweringQuestion"
	case Submitting:
		return "Submitting"
	case Submitted:
		return "Submitted"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNoQuestions   = errors.New("survey has no questions")
	ErrNameRequired  = errors.New("participant name is required")
	ErrNotAnswered   = errors.New("question is not answered")
	ErrLastQuestion  = errors.New("already at the last question")
	ErrUnknownOption = errors.New("option does not belong to the question")
	ErrWrongType     = errors.New("answer does not fit the question type")
)

// StateError is returned when an action is not allowed in the current state.
type StateError struct {
	Action string
	State  State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Action, e.State)
}

// Submitter delivers a finished response.
type Submitter interface {
	Submit(ctx context.Context, surveyID string, req model.SubmitRequest) (model.SubmitResponse, error)
}

type answer struct {
	text     string
	selected []string
}

type Wizard struct {
	mu       sync.Mutex
	survey   model.Survey
	state    State
	index    int
	name     string
	answers  []answer
	err      error
	response model.SubmitResponse
}

func New(survey model.Survey) (*Wizard, error) {
	if len(survey.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &Wizard{
		survey:  survey,
		answers: make([]answer, len(survey.Questions)),
	}, nil
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Index is the position of the current question. It is meaningful while
// answering, submitting or after a failed submit.
func (w *Wizard) Index() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

func (w *Wizard) Current() (model.Question, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == CollectingName || w.state == Submitted {
		return model.Question{}, false
	}
	return w.survey.Questions[w.index], true
}

// Err is the error of the last failed submit.
func (w *Wizard) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Wizard) Response() model.SubmitResponse {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.response
}

func (w *Wizard) SetName(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != CollectingName {
		return &StateError{"set the name", w.state}
	}
	w.name = name
	return nil
}

func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case CollectingName:
		if strings.TrimSpace(w.name) == "" {
			return ErrNameRequired
		}
		w.state = AnsweringQuestion
		w.index = 0
		return nil
	case AnsweringQuestion:
		if !w.answered(w.index) {
			return ErrNotAnswered
		}
		if w.index == len(w.survey.Questions)-1 {
			return ErrLastQuestion
		}
		w.index++
		return nil
	}
	return &StateError{"go forward", w.state}
}

func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case AnsweringQuestion, Failed:
		w.err = nil
		if w.index == 0 {
			w.state = CollectingName
			return nil
		}
		w.state = AnsweringQuestion
		w.index--
		return nil
	}
	return &StateError{"go back", w.state}
}

// editable checks that the current question takes an answer of the wanted
// type and option. Only an accepted edit after a failed submit returns to
// answering the last question.
func (w *Wizard) editable(want model.QuestionType, optionID string) error {
	if w.state != AnsweringQuestion && w.state != Failed {
		return &StateError{"answer", w.state}
	}
	q := w.survey.Questions[w.index]
	if q.Type != want {
		return ErrWrongType
	}
	if want != model.QuestionText && !hasOption(q, optionID) {
		return ErrUnknownOption
	}

	w.state = AnsweringQuestion
	w.err = nil
	return nil
}

func (w *Wizard) SetText(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editable(model.QuestionText, ""); err != nil {
		return err
	}
	w.answers[w.index].text = text
	return nil
}

// Select picks the single option of a single choice question.
func (w *Wizard) Select(optionID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editable(model.SingleChoice, optionID); err != nil {
		return err
	}
	w.answers[w.index].selected = []string{optionID}
	return nil
}

// Toggle adds or removes an option of a multiple choice question.
func (w *Wizard) Toggle(optionID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editable(model.MultipleChoice, optionID); err != nil {
		return err
	}

	a := &w.answers[w.index]
	for i, id := range a.selected {
		if id == optionID {
			a.selected = append(a.selected[:i], a.selected[i+1:]...)
			return nil
		}
	}
	a.selected = append(a.selected, optionID)
	return nil
}

func hasOption(q model.Question, optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// Answered reports whether the current question may be left going forward.
func (w *Wizard) Answered() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == CollectingName {
		return false
	}
	return w.answered(w.index)
}

func (w *Wizard) answered(i int) bool {
	a := w.answers[i]
	if w.survey.Questions[i].Type == model.QuestionText {
		return strings.TrimSpace(a.text) != ""
	}
	return len(a.selected) > 0
}

// Request builds the payload for the answers given so far.
func (w *Wizard) Request() model.SubmitRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.request()
}

func (w *Wizard) request() model.SubmitRequest {
	req := model.SubmitRequest{
		ParticipantName: strings.TrimSpace(w.name),
		Answers:         make([]model.AnswerInput, 0, len(w.answers)),
	}
	for i, q := range w.survey.Questions {
		a := w.answers[i]
		in := model.AnswerInput{QuestionID: q.ID}
		switch q.Type {
		case model.QuestionText:
			text := strings.TrimSpace(a.text)
			in.TextValue = &text
		case model.SingleChoice:
			if len(a.selected) > 0 {
				id := a.selected[0]
				in.SelectedOptionID = &id
			}
		case model.MultipleChoice:
			in.SelectedOptionIDs = append([]string(nil), a.selected...)
		}
		req.Answers = append(req.Answers, in)
	}
	return req
}

// Submit sends the response from the last question. On failure the wizard
// stays on the last question in the Failed state and may submit again; on
// success it is Submitted for good.
func (w *Wizard) Submit(ctx context.Context, s Submitter) error {
	w.mu.Lock()
	if w.state != AnsweringQuestion && w.state != Failed {
		state := w.state
		w.mu.Unlock()
		return &StateError{"submit", state}
	}
	if w.index != len(w.survey.Questions)-1 {
		w.mu.Unlock()
		return &StateError{"submit before the last question", w.state}
	}
	if !w.answered(w.index) {
		w.mu.Unlock()
		return ErrNotAnswered
	}
	w.state = Submitting
	w.err = nil
	req := w.request()
	w.mu.Unlock()

	resp, err := s.Submit(ctx, w.survey.ID, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state = Failed
		w.err = err
		return err
	}
	w.state = Submitted
	w.response = resp
	return nil
}
