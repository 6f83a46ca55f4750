package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/gyp-site/log"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, body ErrorBody) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// Will log an error, and send a JSON response with status 500 and a generic message
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.WithFields(log.Fields{"code": code, "path": r.URL.Path}).Error(err)
	writeError(w, r, http.StatusInternalServerError, ErrorBody{Error: "internal server error"})
}

// Will log a debug message, and send a JSON response with status 404
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	writeError(w, r, http.StatusNotFound, ErrorBody{Error: "not found"})
}

// Will log an error code at the given level, and send
// a JSON response with status and default text
func LogStatus(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string) {
	log.Log(level, code)
	writeError(w, r, status, ErrorBody{Error: http.StatusText(status)})
}

// Will log an error code and message at the given level,
// and send a JSON response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	writeError(w, r, status, ErrorBody{Error: errMsg})
}

// Will send a 400 response carrying one message per invalid field
func LogInvalid(w http.ResponseWriter, r *http.Request, code string, fields map[string]string) {
	log.Debugf("%s: invalid %v", code, fields)
	writeError(w, r, http.StatusBadRequest, ErrorBody{Error: "invalid request", Errors: fields})
}

// Will send a response with the given status, a message and a field-keyed map
func LogStatusFields(w http.ResponseWriter, r *http.Request, status int, code string, msg string, fields map[string]string) {
	log.Debugf("%s: %s", code, msg)
	writeError(w, r, status, ErrorBody{Error: msg, Errors: fields})
}

func Unauthorized(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusUnauthorized, ErrorBody{Error: "unauthorized"})
}

func Forbidden(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusForbidden, ErrorBody{Error: "forbidden"})
}
