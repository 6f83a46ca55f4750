// Package testutil builds throwaway applications backed by a migrated SQLite
// file, plus fixtures and request helpers for handler tests.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/config"
	"github.com/mbolis/gyp-site/database"
	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/model"
)

const (
	AdminEmail     = "admin@example.com"
	AdminPassword  = "admin-secret"
	EditorEmail    = "editor@example.com"
	EditorPassword = "editor-secret"
)

// Config is a configuration rooted in the test's temporary directory.
func Config(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		Addr:        "127.0.0.1:0",
		DBUrl:       filepath.Join(dir, "test.db"),
		TokenSecret: "test-secret",
		TokenTTL:    time.Hour,
		PublicDir:   filepath.Join(dir, "public"),
		PrivateDir:  filepath.Join(dir, "private"),
		UploadDir:   filepath.Join(dir, "public", "uploads"),
	}
}

// NewApp opens a fresh migrated database and builds an App around it.
func NewApp(t *testing.T) app.App {
	t.Helper()
	cfg := Config(t)

	db, err := database.Open(context.Background(), cfg.DBUrl)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return app.New(db, cfg)
}

// Env is an App with an admin and an editor account already signed in.
type Env struct {
	App         app.App
	AdminID     string
	AdminToken  string
	EditorID    string
	EditorToken string
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	a := NewApp(t)
	env := &Env{App: a}
	env.AdminID = CreateUser(t, a.DB, "Admin", AdminEmail, AdminPassword, model.RoleAdmin)
	env.EditorID = CreateUser(t, a.DB, "Editor", EditorEmail, EditorPassword, model.RoleEditor)
	env.AdminToken = Token(t, a, AdminEmail, AdminPassword)
	env.EditorToken = Token(t, a, EditorEmail, EditorPassword)
	return env
}

// CreateUser inserts an account with a low-cost hash and returns its id.
func CreateUser(t *testing.T, db *sql.DB, name, email, password string, role model.Role) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	id := uuid.NewString()
	_, err = db.Exec(`
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, name, email, string(hash), role, time.Now().UTC(),
	)
	require.NoError(t, err)
	return id
}

// Token signs in through the bearer server and returns the access token.
func Token(t *testing.T, a app.App, email, password string) string {
	t.Helper()
	return Tokens(t, a, email, password).AccessToken
}

func Tokens(t *testing.T, a app.App, email, password string) httpx.TokenResponse {
	t.Helper()
	tokens, status, err := httpx.RequestTokens(context.Background(), a.BearerServer, httpx.PasswordGrant(email, password))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status, "sign in as %s", email)
	return tokens
}

// CreateSurvey inserts a survey owned by userID with one question per entry
// of questions. Choice questions get the given options.
func CreateSurvey(t *testing.T, db *sql.DB, userID, title string, active bool, questions ...model.Question) model.Survey {
	t.Helper()
	survey := model.Survey{
		ID:        uuid.NewString(),
		Title:     title,
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.Exec(`
		INSERT INTO surveys (id, title, description, created_by, created_at, is_active)
		VALUES ($1, $2, '', $3, $4, $5)`,
		survey.ID, survey.Title, userID, survey.CreatedAt, survey.IsActive,
	)
	require.NoError(t, err)

	for i, q := range questions {
		q.ID = uuid.NewString()
		q.DisplayOrder = i + 1
		_, err := db.Exec(`
			INSERT INTO questions (id, survey_id, text, type, display_order)
			VALUES ($1, $2, $3, $4, $5)`,
			q.ID, survey.ID, q.Text, q.Type, q.DisplayOrder,
		)
		require.NoError(t, err)

		for j := range q.Options {
			o := &q.Options[j]
			o.ID = uuid.NewString()
			o.DisplayOrder = j + 1
			_, err := db.Exec(`
				INSERT INTO question_options (id, question_id, text, display_order)
				VALUES ($1, $2, $3, $4)`,
				o.ID, q.ID, o.Text, o.DisplayOrder,
			)
			require.NoError(t, err)
		}
		survey.Questions = append(survey.Questions, q)
	}
	return survey
}

// Choice builds a question fixture with one option per text.
func Choice(text string, qtype model.QuestionType, options ...string) model.Question {
	q := model.Question{Text: text, Type: qtype}
	for _, o := range options {
		q.Options = append(q.Options, model.Option{Text: o})
	}
	return q
}

func Text(text string) model.Question {
	return model.Question{Text: text, Type: model.QuestionText}
}

// Count runs a COUNT query.
func Count(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

// MakeRequest builds a request with a JSON body and, when token is not empty,
// a bearer authorization header.
func MakeRequest(method, path string, body any, token string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// DecodeJSON unmarshals the recorded body into v.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

// ErrorBody decodes a JSON error response.
func ErrorBody(t *testing.T, w *httptest.ResponseRecorder) httpx.ErrorBody {
	t.Helper()
	var body httpx.ErrorBody
	DecodeJSON(t, w, &body)
	return body
}
