package routes

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/log"
)

// queryer is what *sql.DB and *sql.Tx have in common for reads.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// decodeValid reads a JSON body into v and checks its validation tags,
// answering 400 itself when either step fails.
func decodeValid(w http.ResponseWriter, r *http.Request, code string, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, code+".parse_body", "invalid JSON body")
		return false
	}
	if fields := httpx.Validate(v); fields != nil {
		httpx.LogInvalid(w, r, code+".validate", fields)
		return false
	}
	return true
}

// pathID reads a uuid route parameter. Anything that is not a uuid cannot
// name a row, so it is answered with 404.
func pathID(w http.ResponseWriter, r *http.Request, code string) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.LogNotFound(w, r, code, id)
		return "", false
	}
	return id, true
}

// queryID reads the ?id= parameter used by the collection endpoints.
func queryID(w http.ResponseWriter, r *http.Request, code string) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.LogInvalid(w, r, code, map[string]string{"id": "is required"})
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		httpx.LogNotFound(w, r, code, id)
		return "", false
	}
	return id, true
}

func queryFlag(r *http.Request, name string) bool {
	flag, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return flag
}

func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return def
	}
	return n
}

type message struct {
	Message string `json:"message"`
}

type success struct {
	Success bool `json:"success"`
}

func created(w http.ResponseWriter, r *http.Request, v any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, v)
}
