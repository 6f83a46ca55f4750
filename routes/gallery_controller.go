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

const galleryColumns = `id, title, description, image_url, display_order, is_visible, created_at`

func scanGalleryItem(row interface{ Scan(...any) error }) (model.GalleryItem, error) {
	g := model.GalleryItem{}
	err := row.Scan(&g.ID, &g.Title, &g.Description, &g.ImageURL, &g.DisplayOrder, &g.IsVisible, &g.CreatedAt)
	return g, err
}

func ListGallery(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `SELECT ` + galleryColumns + ` FROM work_gallery`
		var args []any
		if queryFlag(r, "visible") {
			query += ` WHERE is_visible = $1`
			args = append(args, true)
		}
		query += ` ORDER BY display_order ASC, created_at DESC`

		rows, err := app.QueryContext(r.Context(), query, args...)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_gallery", err)
			return
		}
		defer rows.Close()

		items := []model.GalleryItem{}
		for rows.Next() {
			g, err := scanGalleryItem(rows)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_gallery.scan", err)
				return
			}
			items = append(items, g)
		}
		if err := rows.Err(); err != nil {
			httpx.LogInternalError(w, r, "db.get_gallery.next", err)
			return
		}

		render.JSON(w, r, items)
	}
}

func CreateGalleryItem(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.CreateGalleryItemRequest{}
		if !decodeValid(w, r, "create_gallery", &req) {
			return
		}
		session, _ := httpx.SessionFrom(r.Context())

		item := model.GalleryItem{
			ID:           uuid.NewString(),
			Title:        strings.TrimSpace(req.Title),
			Description:  req.Description,
			ImageURL:     strings.TrimSpace(req.ImageURL),
			DisplayOrder: req.DisplayOrder,
			IsVisible:    true,
			CreatedAt:    app.Now().UTC().Truncate(time.Microsecond),
		}
		_, err := app.ExecContext(r.Context(), `
			INSERT INTO work_gallery (id, title, description, image_url, display_order, is_visible, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID,
			item.Title,
			item.Description,
			item.ImageURL,
			item.DisplayOrder,
			item.IsVisible,
			session.UserID,
			item.CreatedAt,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_gallery", err)
			return
		}

		created(w, r, item)
	}
}

func UpdateGalleryItem(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.UpdateGalleryItemRequest{}
		if !decodeValid(w, r, "update_gallery", &req) {
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE work_gallery
			SET
				title = COALESCE($1, title),
				description = COALESCE($2, description),
				image_url = COALESCE($3, image_url),
				display_order = COALESCE($4, display_order),
				is_visible = COALESCE($5, is_visible)
			WHERE id = $6`,
			req.Title,
			req.Description,
			req.ImageURL,
			req.DisplayOrder,
			req.IsVisible,
			req.ID,
		)
		if !updated(w, r, "update_gallery", req.ID, res, err) {
			return
		}

		item, err := scanGalleryItem(app.QueryRowContext(r.Context(), `
			SELECT `+galleryColumns+` FROM work_gallery WHERE id = $1`,
			req.ID,
		))
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "update_gallery", req.ID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_gallery.select", err)
			return
		}

		render.JSON(w, r, item)
	}
}

func DeleteGalleryItem(app app.App) http.HandlerFunc {
	return deleteByID(app, "work_gallery", "delete_gallery")
}

// updated reports whether an UPDATE by id went through, answering the
// request itself when it did not.
func updated(w http.ResponseWriter, r *http.Request, code string, id string, res sql.Result, err error) bool {
	if err != nil {
		httpx.LogInternalError(w, r, "db."+code, err)
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		httpx.LogInternalError(w, r, "db."+code+".verify", err)
		return false
	}
	if n < 1 {
		httpx.LogNotFound(w, r, code, id)
		return false
	}
	return true
}

// deleteByID serves DELETE ?id= for one of the site tables.
func deleteByID(app app.App, table string, code string) http.HandlerFunc {
	query := `DELETE FROM ` + table + ` WHERE id = $1`
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryID(w, r, code)
		if !ok {
			return
		}

		res, err := app.ExecContext(r.Context(), query, id)
		if !updated(w, r, code, id, res, err) {
			return
		}
		render.JSON(w, r, success{true})
	}
}
