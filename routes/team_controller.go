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

const teamColumns = `id, name, position, bio, photo_url, display_order, is_visible, created_at`

func scanTeamMember(row interface{ Scan(...any) error }) (model.TeamMember, error) {
	m := model.TeamMember{}
	err := row.Scan(&m.ID, &m.Name, &m.Position, &m.Bio, &m.PhotoURL, &m.DisplayOrder, &m.IsVisible, &m.CreatedAt)
	return m, err
}

// ListTeam returns the visible members; all=true adds the hidden ones.
func ListTeam(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `SELECT ` + teamColumns + ` FROM team_members`
		var args []any
		if !queryFlag(r, "all") {
			query += ` WHERE is_visible = $1`
			args = append(args, true)
		}
		query += ` ORDER BY display_order ASC`

		rows, err := app.QueryContext(r.Context(), query, args...)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_team", err)
			return
		}
		defer rows.Close()

		team := []model.TeamMember{}
		for rows.Next() {
			m, err := scanTeamMember(rows)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_team.scan", err)
				return
			}
			team = append(team, m)
		}
		if err := rows.Err(); err != nil {
			httpx.LogInternalError(w, r, "db.get_team.next", err)
			return
		}

		render.JSON(w, r, team)
	}
}

// CreateTeamMember appends the new member after the current last one.
func CreateTeamMember(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.CreateTeamMemberRequest{}
		if !decodeValid(w, r, "create_team", &req) {
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		member := model.TeamMember{
			ID:        uuid.NewString(),
			Name:      strings.TrimSpace(req.Name),
			Position:  strings.TrimSpace(req.Position),
			Bio:       req.Bio,
			PhotoURL:  req.PhotoURL,
			IsVisible: true,
			CreatedAt: app.Now().UTC().Truncate(time.Microsecond),
		}
		err = tx.QueryRowContext(r.Context(), `
			SELECT COALESCE(MAX(display_order), 0) + 1 FROM team_members`,
		).Scan(&member.DisplayOrder)
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_team.next_order", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO team_members (id, name, position, bio, photo_url, display_order, is_visible, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			member.ID,
			member.Name,
			member.Position,
			member.Bio,
			member.PhotoURL,
			member.DisplayOrder,
			member.IsVisible,
			member.CreatedAt,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_team", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_team.commit", err)
			return
		}

		created(w, r, member)
	}
}

func UpdateTeamMember(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.UpdateTeamMemberRequest{}
		if !decodeValid(w, r, "update_team", &req) {
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE team_members
			SET
				name = COALESCE($1, name),
				position = COALESCE($2, position),
				bio = COALESCE($3, bio),
				photo_url = COALESCE($4, photo_url),
				display_order = COALESCE($5, display_order),
				is_visible = COALESCE($6, is_visible)
			WHERE id = $7`,
			req.Name,
			req.Position,
			req.Bio,
			req.PhotoURL,
			req.DisplayOrder,
			req.IsVisible,
			req.ID,
		)
		if !updated(w, r, "update_team", req.ID, res, err) {
			return
		}

		member, err := scanTeamMember(app.QueryRowContext(r.Context(), `
			SELECT `+teamColumns+` FROM team_members WHERE id = $1`,
			req.ID,
		))
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "update_team", req.ID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_team.select", err)
			return
		}

		render.JSON(w, r, member)
	}
}

func DeleteTeamMember(app app.App) http.HandlerFunc {
	return deleteByID(app, "team_members", "delete_team")
}
