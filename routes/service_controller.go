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

const (
	serviceColumns = `id, title, description, icon, features, display_order, is_visible, created_at`
	defaultIcon    = "chart"
)

func scanService(row interface{ Scan(...any) error }) (model.Service, error) {
	s := model.Service{}
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Icon, &s.Features, &s.DisplayOrder, &s.IsVisible, &s.CreatedAt)
	return s, err
}

// ListServices returns the visible services; all=true adds the hidden ones.
func ListServices(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `SELECT ` + serviceColumns + ` FROM services`
		var args []any
		if !queryFlag(r, "all") {
			query += ` WHERE is_visible = $1`
			args = append(args, true)
		}
		query += ` ORDER BY display_order ASC`

		rows, err := app.QueryContext(r.Context(), query, args...)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_services", err)
			return
		}
		defer rows.Close()

		services := []model.Service{}
		for rows.Next() {
			s, err := scanService(rows)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_services.scan", err)
				return
			}
			services = append(services, s)
		}
		if err := rows.Err(); err != nil {
			httpx.LogInternalError(w, r, "db.get_services.next", err)
			return
		}

		render.JSON(w, r, services)
	}
}

func CreateService(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.CreateServiceRequest{}
		if !decodeValid(w, r, "create_service", &req) {
			return
		}

		service := model.Service{
			ID:          uuid.NewString(),
			Title:       strings.TrimSpace(req.Title),
			Description: strings.TrimSpace(req.Description),
			Icon:        strings.TrimSpace(req.Icon),
			Features:    req.Features,
			IsVisible:   true,
			CreatedAt:   app.Now().UTC().Truncate(time.Microsecond),
		}
		if service.Icon == "" {
			service.Icon = defaultIcon
		}
		if service.Features == nil {
			service.Features = model.Features{}
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		err = tx.QueryRowContext(r.Context(), `
			SELECT COALESCE(MAX(display_order), 0) + 1 FROM services`,
		).Scan(&service.DisplayOrder)
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_service.next_order", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO services (id, title, description, icon, features, display_order, is_visible, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			service.ID,
			service.Title,
			service.Description,
			service.Icon,
			service.Features,
			service.DisplayOrder,
			service.IsVisible,
			service.CreatedAt,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_service", err)
			return
		}

		if err = tx.Commit(); err != nil {
			httpx.LogInternalError(w, r, "db.create_service.commit", err)
			return
		}

		created(w, r, service)
	}
}

func UpdateService(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.UpdateServiceRequest{}
		if !decodeValid(w, r, "update_service", &req) {
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE services
			SET
				title = COALESCE($1, title),
				description = COALESCE($2, description),
				icon = COALESCE($3, icon),
				features = COALESCE($4, features),
				display_order = COALESCE($5, display_order),
				is_visible = COALESCE($6, is_visible)
			WHERE id = $7`,
			req.Title,
			req.Description,
			req.Icon,
			req.Features,
			req.DisplayOrder,
			req.IsVisible,
			req.ID,
		)
		if !updated(w, r, "update_service", req.ID, res, err) {
			return
		}

		service, err := scanService(app.QueryRowContext(r.Context(), `
			SELECT `+serviceColumns+` FROM services WHERE id = $1`,
			req.ID,
		))
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "update_service", req.ID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_service.select", err)
			return
		}

		render.JSON(w, r, service)
	}
}

func DeleteService(app app.App) http.HandlerFunc {
	return deleteByID(app, "services", "delete_service")
}
