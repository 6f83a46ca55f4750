package routes

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/database"
	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/log"
	"github.com/mbolis/gyp-site/model"
	"github.com/mbolis/gyp-site/routes/middlewares"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(\S+)$`)

const badCredentials = "invalid email or password"

type loginResponse struct {
	httpx.TokenResponse
	User model.Session `json:"user"`
}

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credentials := model.Credentials{}
		if !decodeValid(w, r, "login", &credentials) {
			return
		}
		email := strings.ToLower(strings.TrimSpace(credentials.Email))

		tokens, status, err := httpx.RequestTokens(r.Context(), app.BearerServer, httpx.PasswordGrant(email, credentials.Password))
		if err != nil {
			httpx.LogInternalError(w, r, "login.tokens", err)
			return
		}
		if status != http.StatusOK {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "login.credentials", badCredentials)
			return
		}

		session, err := httpx.LookupSession(r.Context(), app.DB, email)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "login.session", badCredentials)
			return
		}

		if queryFlag(r, "cookie") {
			middlewares.SetTokenCookies(w, tokens)
		}
		render.JSON(w, r, loginResponse{tokens, session})
	}
}

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("Authorization"))
		if match == nil {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.header")
			return
		}

		tokens, status, err := httpx.RequestTokens(r.Context(), app.BearerServer, httpx.RefreshGrant(match[1]))
		if err != nil {
			httpx.LogInternalError(w, r, "refresh.tokens", err)
			return
		}
		if status != http.StatusOK {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}
		render.JSON(w, r, tokens)
	}
}

func Logout(w http.ResponseWriter, r *http.Request) {
	middlewares.ClearTokenCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func Me(w http.ResponseWriter, r *http.Request) {
	session, ok := httpx.SessionFrom(r.Context())
	if !ok {
		httpx.Unauthorized(w, r)
		return
	}
	render.JSON(w, r, session)
}

// Register is the public sign-up: the new account always gets the user role.
func Register(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.RegisterRequest{}
		if !decodeValid(w, r, "register", &req) {
			return
		}

		user, err := insertUser(r, app, req.Name, req.Email, req.Password, model.RoleUser)
		if database.IsUniqueViolation(err) {
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "register.email", "a user with this email already exists")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.register.insert", err)
			return
		}
		created(w, r, user)
	}
}

func insertUser(r *http.Request, app app.App, name, email, password string, role model.Role) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}

	user := model.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      role,
		CreatedAt: app.Now().UTC().Truncate(time.Microsecond),
	}
	_, err = app.ExecContext(r.Context(), `
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, string(hash), user.Role, user.CreatedAt,
	)
	return user, err
}
