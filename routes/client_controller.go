package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/model"
)

const clientColumns = `id, name, logo_url, website, description, display_order, is_visible, created_at`

func scanClient(row interface{ Scan(...any) error }) (model.Client, error) {
	c := model.Client{}
	err := row.Scan(&c.ID, &c.Name, &c.LogoURL, &c.Website, &c.Description, &c.DisplayOrder, &c.IsVisible, &c.CreatedAt)
	return c, err
}

func ListClients(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `SELECT ` + clientColumns + ` FROM clients`
		var args []any
		if queryFlag(r, "visible") {
			query += ` WHERE is_visible = $1`
			args = append(args, true)
		}
		query += ` ORDER BY display_order ASC, created_at DESC`

		rows, err := app.QueryContext(r.Context(), query, args...)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_clients", err)
			return
		}
		defer rows.Close()

		clients := []model.Client{}
		for rows.Next() {
			c, err := scanClient(rows)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_clients.scan", err)
				return
			}
			clients = append(clients, c)
		}
		if err := rows.Err(); err != nil {
			httpx.LogInternalError(w, r, "db.get_clients.next", err)
			return
		}

		render.JSON(w, r, clients)
	}
}

func CreateClient(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.CreateClientRequest{}
		if !decodeValid(w, r, "create_client", &req) {
			return
		}

		client := model.Client{
			ID:           uuid.NewString(),
			Name:         strings.TrimSpace(req.Name),
			LogoURL:      req.LogoURL,
			Website:      req.Website,
			Description:  req.Description,
			DisplayOrder: req.DisplayOrder,
			IsVisible:    true,
			CreatedAt:    app.Now().UTC().Truncate(time.Microsecond),
		}
		_, err := app.ExecContext(r.Context(), `
			INSERT INTO clients (id, name, logo_url, website, description, display_order, is_visible, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			client.ID,
			client.Name,
			client.LogoURL,
			client.Website,
			client.Description,
			client.DisplayOrder,
			client.IsVisible,
			client.CreatedAt,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_client", err)
			return
		}

		created(w, r, client)
	}
}

func UpdateClient(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.UpdateClientRequest{}
		if !decodeValid(w, r, "update_client", &req) {
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE clients
			SET
				name = COALESCE($1, name),
				logo_url = COALESCE($2, logo_url),
				website = COALESCE($3, website),
				description = COALESCE($4, description),
				display_order = COALESCE($5, display_order),
				is_visible = COALESCE($6, is_visible)
			WHERE id = $7`,
			req.Name,
			req.LogoURL,
			req.Website,
			req.Description,
			req.DisplayOrder,
			req.IsVisible,
			req.ID,
		)
		if !updated(w, r, "update_client", req.ID, res, err) {
			return
		}

		client, err := scanClient(app.QueryRowContext(r.Context(), `
			SELECT `+clientColumns+` FROM clients WHERE id = $1`,
			req.ID,
		))
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "update_client", req.ID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_client.select", err)
			return
		}

		render.JSON(w, r, client)
	}
}

func DeleteClient(app app.App) http.HandlerFunc {
	return deleteByID(app, "clients", "delete_client")
}
