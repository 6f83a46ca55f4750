package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/model"
)

var defaultNavigation = []model.NavigationLink{
	{ID: "1", Label: "Servicios", Href: "/servicios", DisplayOrder: 1},
	{ID: "2", Label: "Estudios", Href: "/estudios", DisplayOrder: 2},
	{ID: "3", Label: "Nosotros", Href: "/nosotros", DisplayOrder: 3},
	{ID: "4", Label: "Clientes", Href: "/clientes", DisplayOrder: 4},
	{ID: "5", Label: "Contacto", Href: "/contacto", DisplayOrder: 5},
}

func loadNavigation(ctx context.Context, db queryer, visibleOnly bool) ([]model.NavigationLink, error) {
	query := `SELECT id, label, href, display_order, is_visible FROM navigation_links`
	var args []any
	if visibleOnly {
		query += ` WHERE is_visible = $1`
		args = append(args, true)
	}
	query += ` ORDER BY display_order ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []model.NavigationLink{}
	for rows.Next() {
		l := model.NavigationLink{}
		var visible bool
		if err := rows.Scan(&l.ID, &l.Label, &l.Href, &l.DisplayOrder, &visible); err != nil {
			return nil, err
		}
		l.IsVisible = &visible
		links = append(links, l)
	}
	return links, rows.Err()
}

// GetNavigation serves the visible links, or the built-in menu while none
// have been configured.
func GetNavigation(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := loadNavigation(r.Context(), app.DB, true)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_navigation", err)
			return
		}
		if len(links) == 0 {
			var configured int
			err = app.QueryRowContext(r.Context(), `SELECT COUNT(*) FROM navigation_links`).Scan(&configured)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_navigation.count", err)
				return
			}
			if configured == 0 {
				links = defaultNavigation
			}
		}
		render.JSON(w, r, links)
	}
}

// UpdateNavigation replaces the whole menu.
func UpdateNavigation(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.UpdateNavigationRequest{}
		if !decodeValid(w, r, "update_navigation", &req) {
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `DELETE FROM navigation_links`)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_navigation.delete", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO navigation_links (id, label, href, display_order, is_visible)
			VALUES ($1, $2, $3, $4, $5)`)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_navigation.prepare", err)
			return
		}
		defer stmt.Close()

		for _, l := range req.Links {
			visible := l.IsVisible == nil || *l.IsVisible
			_, err = stmt.ExecContext(r.Context(),
				uuid.NewString(),
				strings.TrimSpace(l.Label),
				strings.TrimSpace(l.Href),
				l.DisplayOrder,
				visible,
			)
			if err != nil {
				httpx.LogInternalError(w, r, "db.update_navigation.insert", err)
				return
			}
		}

		links, err := loadNavigation(r.Context(), tx, false)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_navigation.select", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_navigation.commit", err)
			return
		}

		render.JSON(w, r, links)
	}
}
