package routes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/model"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := httpx.SessionFrom(r.Context())

		req := model.CreateSurveyRequest{}
		if !decodeValid(w, r, "create_survey", &req) {
			return
		}
		if fields := checkOptions(req.Questions); fields != nil {
			httpx.LogInvalid(w, r, "create_survey.options", fields)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		survey := model.Survey{
			ID:            uuid.NewString(),
			Title:         strings.TrimSpace(req.Title),
			Description:   req.Description,
			IsActive:      req.IsActive,
			CreatedAt:     app.Now().UTC().Truncate(time.Microsecond),
			CreatedByName: session.Name,
		}
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO surveys (id, title, description, created_by, created_at, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			survey.ID,
			survey.Title,
			survey.Description,
			session.UserID,
			survey.CreatedAt,
			survey.IsActive,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_survey", err)
			return
		}

		survey.Questions, err = insertQuestions(r.Context(), tx, survey.ID, req.Questions)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_survey.questions", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_survey.commit", err)
			return
		}

		created(w, r, survey)
	}
}

// choice questions need something to choose from
func checkOptions(questions []model.QuestionInput) map[string]string {
	var fields map[string]string
	for i, q := range questions {
		if q.Type.HasOptions() && len(q.Options) == 0 {
			if fields == nil {
				fields = map[string]string{}
			}
			fields[fmt.Sprintf("questions[%d].options", i)] = "must have at least 1 items"
		}
	}
	return fields
}

// insertQuestions writes questions and their options with 1-based positional
// display orders, returning the tree as stored.
func insertQuestions(ctx context.Context, tx *sql.Tx, surveyID string, inputs []model.QuestionInput) ([]model.Question, error) {
	questionStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (id, survey_id, text, type, display_order)
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return nil, fmt.Errorf("prepare question: %w", err)
	}
	defer questionStmt.Close()

	optionStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO question_options (id, question_id, text, display_order)
		VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return nil, fmt.Errorf("prepare option: %w", err)
	}
	defer optionStmt.Close()

	questions := make([]model.Question, 0, len(inputs))
	for i, in := range inputs {
		q := model.Question{
			ID:           uuid.NewString(),
			Text:         strings.TrimSpace(in.Text),
			Type:         in.Type,
			DisplayOrder: i + 1,
			Options:      []model.Option{},
		}
		_, err := questionStmt.ExecContext(ctx, q.ID, surveyID, q.Text, q.Type, q.DisplayOrder)
		if err != nil {
			return nil, fmt.Errorf("insert question %d: %w", q.DisplayOrder, err)
		}

		if q.Type.HasOptions() {
			for j, opt := range in.Options {
				o := model.Option{
					ID:           uuid.NewString(),
					Text:         strings.TrimSpace(opt.Text),
					DisplayOrder: j + 1,
				}
				_, err := optionStmt.ExecContext(ctx, o.ID, q.ID, o.Text, o.DisplayOrder)
				if err != nil {
					return nil, fmt.Errorf("insert option %d of question %d: %w", o.DisplayOrder, q.DisplayOrder, err)
				}
				q.Options = append(q.Options, o)
			}
		}

		questions = append(questions, q)
	}
	return questions, nil
}

// loadQuestions returns the ordered question tree of one survey.
func loadQuestions(ctx context.Context, db queryer, surveyID string) ([]model.Question, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, text, type, display_order
		FROM questions
		WHERE survey_id = $1
		ORDER BY display_order`,
		surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	index := map[string]int{}
	for rows.Next() {
		q := model.Question{Options: []model.Option{}}
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &q.DisplayOrder); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	optRows, err := db.QueryContext(ctx, `
		SELECT o.id, o.question_id, o.text, o.display_order
		FROM question_options o
		INNER JOIN questions q ON (q.id = o.question_id)
		WHERE q.survey_id = $1
		ORDER BY o.display_order`,
		surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		o := model.Option{}
		var questionID string
		if err := optRows.Scan(&o.ID, &questionID, &o.Text, &o.DisplayOrder); err != nil {
			return nil, err
		}
		if i, ok := index[questionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, optRows.Err()
}

const surveyColumns = `
	s.id, s.title, COALESCE(s.description, ''), s.is_active, s.created_at,
	COALESCE(u.name, ''),
	(SELECT COUNT(*) FROM submissions sub WHERE sub.survey_id = s.id)`

func scanSurvey(row interface{ Scan(...any) error }) (model.Survey, error) {
	s := model.Survey{}
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.IsActive, &s.CreatedAt, &s.CreatedByName, &s.ResponseCount)
	return s, err
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `SELECT ` + surveyColumns + `
			FROM surveys s
			LEFT OUTER JOIN users u ON (u.id = s.created_by)`
		var args []any
		if queryFlag(r, "active") {
			query += ` WHERE s.is_active = $1`
			args = append(args, true)
		}
		query += ` ORDER BY s.created_at DESC`

		rows, err := app.QueryContext(r.Context(), query, args...)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_surveys", err)
			return
		}
		defer rows.Close()

		surveys := []model.Survey{}
		for rows.Next() {
			s, err := scanSurvey(rows)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_surveys.scan", err)
				return
			}
			surveys = append(surveys, s)
		}
		if err = rows.Err(); err != nil {
			httpx.LogInternalError(w, r, "db.get_surveys.next", err)
			return
		}
		rows.Close()

		if queryFlag(r, "includeQuestions") {
			for i := range surveys {
				surveys[i].Questions, err = loadQuestions(r.Context(), app.DB, surveys[i].ID)
				if err != nil {
					httpx.LogInternalError(w, r, "db.get_surveys.questions", err)
					return
				}
			}
		}

		render.JSON(w, r, surveys)
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID, ok := pathID(w, r, "get_survey")
		if !ok {
			return
		}

		row := app.QueryRowContext(r.Context(), `SELECT `+surveyColumns+`
			FROM surveys s
			LEFT OUTER JOIN users u ON (u.id = s.created_by)
			WHERE s.id = $1`,
			surveyID,
		)
		survey, err := scanSurvey(row)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "get_survey", surveyID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}

		survey.Questions, err = loadQuestions(r.Context(), app.DB, surveyID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey.questions", err)
			return
		}

		render.JSON(w, r, survey)
	}
}

// UpdateSurvey patches the provided fields. A questions array replaces every
// existing question, so answers tied to the old questions go with them.
func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID, ok := pathID(w, r, "update_survey")
		if !ok {
			return
		}

		req := model.UpdateSurveyRequest{}
		if !decodeValid(w, r, "update_survey", &req) {
			return
		}
		if fields := checkOptions(req.Questions); fields != nil {
			httpx.LogInvalid(w, r, "update_survey.options", fields)
			return
		}
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			req.Title = &title
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		res, err := tx.ExecContext(r.Context(), `
			UPDATE surveys
			SET
				title = COALESCE($1, title),
				description = COALESCE($2, description),
				is_active = COALESCE($3, is_active)
			WHERE id = $4`,
			req.Title,
			req.Description,
			req.IsActive,
			surveyID,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, r, "update_survey", surveyID)
			return
		}

		if req.Questions != nil {
			_, err = tx.ExecContext(r.Context(), `
				DELETE FROM questions
				WHERE survey_id = $1`,
				surveyID,
			)
			if err != nil {
				httpx.LogInternalError(w, r, "db.update_survey.delete_questions", err)
				return
			}

			_, err = insertQuestions(r.Context(), tx, surveyID, req.Questions)
			if err != nil {
				httpx.LogInternalError(w, r, "db.update_survey.questions", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_survey.commit", err)
			return
		}

		render.JSON(w, r, message{"survey updated"})
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID, ok := pathID(w, r, "delete_survey")
		if !ok {
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM surveys WHERE id = $1`,
			surveyID,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, r, "delete_survey", surveyID)
			return
		}

		render.JSON(w, r, message{"survey deleted"})
	}
}
