package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/database"
	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/log"
	"github.com/mbolis/gyp-site/model"
)

const duplicateEmail = "a user with this email already exists"

func ListUsers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, name, email, role, created_at
			FROM users
			ORDER BY created_at DESC`)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_users", err)
			return
		}
		defer rows.Close()

		users := []model.User{}
		for rows.Next() {
			u := model.User{}
			if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
				httpx.LogInternalError(w, r, "db.get_users.scan", err)
				return
			}
			users = append(users, u)
		}
		if err := rows.Err(); err != nil {
			httpx.LogInternalError(w, r, "db.get_users.next", err)
			return
		}

		render.JSON(w, r, users)
	}
}

// staffRole keeps admin and editor, and maps anything else to editor.
func staffRole(role model.Role) model.Role {
	if role == model.RoleAdmin {
		return model.RoleAdmin
	}
	return model.RoleEditor
}

func CreateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.CreateUserRequest{}
		if !decodeValid(w, r, "create_user", &req) {
			return
		}

		user, err := insertUser(r, app, req.Name, req.Email, req.Password, staffRole(req.Role))
		if database.IsUniqueViolation(err) {
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "create_user.email", duplicateEmail)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_user.insert", err)
			return
		}
		created(w, r, user)
	}
}

func UpdateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.UpdateUserRequest{}
		if !decodeValid(w, r, "update_user", &req) {
			return
		}

		var name, email, hash *string
		if req.Name != nil {
			v := strings.TrimSpace(*req.Name)
			name = &v
		}
		if req.Email != nil {
			v := strings.ToLower(strings.TrimSpace(*req.Email))
			email = &v
		}
		if req.Password != nil && *req.Password != "" {
			h, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				httpx.LogInternalError(w, r, "update_user.hash", err)
				return
			}
			v := string(h)
			hash = &v
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE users
			SET
				name = COALESCE($1, name),
				email = COALESCE($2, email),
				password_hash = COALESCE($3, password_hash),
				role = COALESCE($4, role)
			WHERE id = $5`,
			name,
			email,
			hash,
			req.Role,
			req.ID,
		)
		if database.IsUniqueViolation(err) {
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "update_user.email", duplicateEmail)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_user", err)
			return
		}
		if !updated(w, r, "update_user", req.ID, res, nil) {
			return
		}

		user := model.User{}
		err = app.QueryRowContext(r.Context(), `
			SELECT id, name, email, role, created_at
			FROM users
			WHERE id = $1`,
			req.ID,
		).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "update_user", req.ID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_user.select", err)
			return
		}

		render.JSON(w, r, user)
	}
}

func DeleteUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryID(w, r, "delete_user")
		if !ok {
			return
		}

		session, _ := httpx.SessionFrom(r.Context())
		if id == session.UserID {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "delete_user.self", "you cannot delete your own account")
			return
		}

		res, err := app.ExecContext(r.Context(), `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_user", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_user.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, r, "delete_user", id)
			return
		}

		render.JSON(w, r, success{true})
	}
}
