package routes

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/log"
	"github.com/mbolis/gyp-site/model"
)

// textResponseLimit caps the free-text answers returned per question.
const textResponseLimit = 50

// answerRow is one row of the answers table.
type answerRow struct {
	questionID string
	text       *string
	optionID   *string
}

// answerRows expands the submitted answers into rows: one per distinct
// selected option of a multiple choice answer, otherwise one per answer.
// Answers without a question id or without any content are dropped. Every
// referenced question must belong to the survey and every option to its
// question; a question is answered at most once and only multiple choice
// questions take selectedOptionIds.
func answerRows(answers []model.AnswerInput, questions map[string]model.QuestionType, options map[string]string) ([]answerRow, map[string]string) {
	var rows []answerRow
	fields := map[string]string{}
	answered := map[string]bool{}
	for i, a := range answers {
		if a.QuestionID == "" {
			continue
		}
		qtype, ok := questions[a.QuestionID]
		if !ok {
			fields[fmt.Sprintf("answers[%d].questionId", i)] = "is not a question of this survey"
			continue
		}

		var expanded []answerRow
		if len(a.SelectedOptionIDs) > 0 {
			if qtype != model.MultipleChoice {
				fields[fmt.Sprintf("answers[%d].selectedOptionIds", i)] = "is only accepted by multiple choice questions"
				continue
			}
			seen := map[string]bool{}
			for j, optionID := range a.SelectedOptionIDs {
				if options[optionID] != a.QuestionID {
					fields[fmt.Sprintf("answers[%d].selectedOptionIds[%d]", i, j)] = "is not an option of this question"
					continue
				}
				if seen[optionID] {
					continue
				}
				seen[optionID] = true
				id := optionID
				expanded = append(expanded, answerRow{questionID: a.QuestionID, optionID: &id})
			}
		} else {
			row := answerRow{questionID: a.QuestionID}
			if a.TextValue != nil && strings.TrimSpace(*a.TextValue) != "" {
				row.text = a.TextValue
			}
			if a.SelectedOptionID != nil && *a.SelectedOptionID != "" {
				if options[*a.SelectedOptionID] != a.QuestionID {
					fields[fmt.Sprintf("answers[%d].selectedOptionId", i)] = "is not an option of this question"
					continue
				}
				row.optionID = a.SelectedOptionID
			}
			if row.text != nil || row.optionID != nil {
				expanded = append(expanded, row)
			}
		}
		if len(expanded) == 0 {
			continue
		}

		if answered[a.QuestionID] {
			fields[fmt.Sprintf("answers[%d].questionId", i)] = "is answered more than once"
			continue
		}
		answered[a.QuestionID] = true
		rows = append(rows, expanded...)
	}

	if len(fields) > 0 {
		return nil, fields
	}
	return rows, nil
}

func SubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID, ok := pathID(w, r, "submit_response")
		if !ok {
			return
		}

		req := model.SubmitRequest{}
		if !decodeValid(w, r, "submit_response", &req) {
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var active bool
		err = tx.QueryRowContext(r.Context(), `
			SELECT is_active FROM surveys WHERE id = $1`,
			surveyID,
		).Scan(&active)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "submit_response", surveyID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.submit_response.survey", err)
			return
		}
		if !active {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "submit_response.inactive", "this survey is not active")
			return
		}

		questions, options, err := surveyKeys(r, tx, surveyID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.submit_response.questions", err)
			return
		}

		rows, fields := answerRows(req.Answers, questions, options)
		if fields != nil {
			httpx.LogInvalid(w, r, "submit_response.answers", fields)
			return
		}

		submissionID := uuid.NewString()
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO submissions (id, survey_id, participant_name, submitted_at)
			VALUES ($1, $2, $3, $4)`,
			submissionID,
			surveyID,
			strings.TrimSpace(req.ParticipantName),
			app.Now().UTC().Truncate(time.Microsecond),
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.submit_response.insert", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO answers (id, submission_id, question_id, text_value, selected_option_id)
			VALUES ($1, $2, $3, $4, $5)`)
		if err != nil {
			httpx.LogInternalError(w, r, "db.submit_response.answers.prepare", err)
			return
		}
		defer stmt.Close()

		for _, a := range rows {
			_, err = stmt.ExecContext(r.Context(), uuid.NewString(), submissionID, a.questionID, a.text, a.optionID)
			if err != nil {
				httpx.LogInternalError(w, r, "db.submit_response.answers.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.submit_response.commit", err)
			return
		}

		created(w, r, model.SubmitResponse{
			SubmissionID: submissionID,
			Message:      "response saved",
		})
	}
}

// surveyKeys maps the survey's question ids to their type, and its option ids
// to the question they belong to.
func surveyKeys(r *http.Request, tx *sql.Tx, surveyID string) (map[string]model.QuestionType, map[string]string, error) {
	rows, err := tx.QueryContext(r.Context(), `
		SELECT id, type FROM questions WHERE survey_id = $1`,
		surveyID,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	questions := map[string]model.QuestionType{}
	for rows.Next() {
		var id string
		var qtype model.QuestionType
		if err := rows.Scan(&id, &qtype); err != nil {
			return nil, nil, err
		}
		questions[id] = qtype
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	rows.Close()

	optRows, err := tx.QueryContext(r.Context(), `
		SELECT o.id, o.question_id
		FROM question_options o
		INNER JOIN questions q ON (q.id = o.question_id)
		WHERE q.survey_id = $1`,
		surveyID,
	)
	if err != nil {
		return nil, nil, err
	}
	defer optRows.Close()

	options := map[string]string{}
	for optRows.Next() {
		var id, questionID string
		if err := optRows.Scan(&id, &questionID); err != nil {
			return nil, nil, err
		}
		options[id] = questionID
	}
	return questions, options, optRows.Err()
}

// Percentage is count over total as a rounded whole percent, 0 when there
// is nothing to divide by.
func Percentage(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

func GetResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID, ok := pathID(w, r, "get_results")
		if !ok {
			return
		}

		results := model.SurveyResults{SurveyID: surveyID, Questions: []model.QuestionResult{}}
		err := app.QueryRowContext(r.Context(), `
			SELECT s.title, (SELECT COUNT(*) FROM submissions sub WHERE sub.survey_id = s.id)
			FROM surveys s
			WHERE s.id = $1`,
			surveyID,
		).Scan(&results.SurveyTitle, &results.TotalResponses)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "get_results", surveyID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_results.survey", err)
			return
		}

		questions, err := loadQuestions(r.Context(), app.DB, surveyID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_results.questions", err)
			return
		}

		for _, q := range questions {
			qr := model.QuestionResult{
				ID:           q.ID,
				Text:         q.Text,
				Type:         q.Type,
				DisplayOrder: q.DisplayOrder,
			}
			if q.Type.HasOptions() {
				qr.Options, err = optionCounts(r, app, q.ID, results.TotalResponses)
			} else {
				qr.TextResponses, err = textResponses(r, app, q.ID)
			}
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_results.answers", err)
				return
			}
			results.Questions = append(results.Questions, qr)
		}

		render.JSON(w, r, results)
	}
}

func optionCounts(r *http.Request, app app.App, questionID string, total int) ([]model.OptionResult, error) {
	rows, err := app.QueryContext(r.Context(), `
		SELECT o.id, o.text, o.display_order, COUNT(a.id)
		FROM question_options o
		LEFT OUTER JOIN answers a ON (a.selected_option_id = o.id)
		WHERE o.question_id = $1
		GROUP BY o.id, o.text, o.display_order
		ORDER BY o.display_order`,
		questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := []model.OptionResult{}
	for rows.Next() {
		o := model.OptionResult{}
		if err := rows.Scan(&o.ID, &o.Text, &o.DisplayOrder, &o.Count); err != nil {
			return nil, err
		}
		o.Percentage = Percentage(o.Count, total)
		options = append(options, o)
	}
	return options, rows.Err()
}

func textResponses(r *http.Request, app app.App, questionID string) ([]model.TextResponse, error) {
	rows, err := app.QueryContext(r.Context(), `
		SELECT a.text_value, s.submitted_at
		FROM answers a
		INNER JOIN submissions s ON (s.id = a.submission_id)
		WHERE a.question_id = $1
			AND a.text_value IS NOT NULL
			AND a.text_value <> ''
		ORDER BY s.submitted_at DESC
		LIMIT $2`,
		questionID,
		textResponseLimit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []model.TextResponse{}
	for rows.Next() {
		t := model.TextResponse{}
		if err := rows.Scan(&t.Text, &t.SubmittedAt); err != nil {
			return nil, err
		}
		responses = append(responses, t)
	}
	return responses, rows.Err()
}
