package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/content"
	"github.com/mbolis/gyp-site/database"
	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/log"
)

const sectionColumns = `section_key, section_name, content, updated_by, updated_at`

func scanSection(row interface{ Scan(...any) error }) (content.Section, error) {
	s := content.Section{}
	var data []byte
	if err := row.Scan(&s.Key, &s.Name, &data, &s.UpdatedBy, &s.UpdatedAt); err != nil {
		return s, err
	}

	s.Kind = content.KindOf(s.Key)
	body, err := content.Decode(s.Key, data)
	if err != nil {
		// served as stored rather than hidden
		log.Warnf("content.%s: %v", s.Key, err)
		s.Kind = content.KindRaw
		body = content.Raw{RawMessage: json.RawMessage(data)}
	}
	s.Content = body
	return s, nil
}

func GetContent(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if key := r.URL.Query().Get("section"); key != "" {
			section, err := scanSection(app.QueryRowContext(r.Context(), `
				SELECT `+sectionColumns+`
				FROM site_content
				WHERE section_key = $1`,
				key,
			))
			if errors.Is(err, sql.ErrNoRows) {
				httpx.LogNotFound(w, r, "get_content", key)
				return
			}
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_content", err)
				return
			}
			render.JSON(w, r, section)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT `+sectionColumns+`
			FROM site_content
			ORDER BY section_key`)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_contents", err)
			return
		}
		defer rows.Close()

		sections := []content.Section{}
		for rows.Next() {
			section, err := scanSection(rows)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_contents.scan", err)
				return
			}
			sections = append(sections, section)
		}
		if err := rows.Err(); err != nil {
			httpx.LogInternalError(w, r, "db.get_contents.next", err)
			return
		}

		render.JSON(w, r, sections)
	}
}

// decodeSection reads an upsert request and checks its content against the
// shape registered for the section key.
func decodeSection(w http.ResponseWriter, r *http.Request, app app.App, code string) (content.Section, []byte, bool) {
	req := content.UpsertRequest{}
	if !decodeValid(w, r, code, &req) {
		return content.Section{}, nil, false
	}

	key := strings.TrimSpace(req.Key)
	body, err := content.Decode(key, req.Content)
	if err != nil {
		httpx.LogInvalid(w, r, code+".content", map[string]string{"content": err.Error()})
		return content.Section{}, nil, false
	}
	if fields := httpx.Validate(body); fields != nil {
		prefixed := make(map[string]string, len(fields))
		for field, msg := range fields {
			prefixed["content."+field] = msg
		}
		httpx.LogInvalid(w, r, code+".content", prefixed)
		return content.Section{}, nil, false
	}

	data, err := json.Marshal(body)
	if err != nil {
		httpx.LogInternalError(w, r, code+".marshal", err)
		return content.Section{}, nil, false
	}

	session, _ := httpx.SessionFrom(r.Context())
	section := content.Section{
		Key:       key,
		Name:      strings.TrimSpace(req.Name),
		Kind:      body.Kind(),
		Content:   body,
		UpdatedBy: &session.UserID,
		UpdatedAt: app.Now().UTC().Truncate(time.Microsecond),
	}
	if section.Name == "" {
		section.Name = key
	}
	return section, data, true
}

func insertSection(ctx context.Context, app app.App, s content.Section, data []byte, upsert bool) error {
	query := `
		INSERT INTO site_content (section_key, section_name, content, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	if upsert {
		query += `
		ON CONFLICT (section_key) DO UPDATE SET
			section_name = excluded.section_name,
			content = excluded.content,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at`
	}
	_, err := app.ExecContext(ctx, query, s.Key, s.Name, string(data), s.UpdatedBy, s.UpdatedAt)
	return err
}

// UpsertContent creates the section or replaces its content.
func UpsertContent(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section, data, ok := decodeSection(w, r, app, "upsert_content")
		if !ok {
			return
		}

		if err := insertSection(r.Context(), app, section, data, true); err != nil {
			httpx.LogInternalError(w, r, "db.upsert_content", err)
			return
		}
		render.JSON(w, r, section)
	}
}

func CreateContent(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section, data, ok := decodeSection(w, r, app, "create_content")
		if !ok {
			return
		}

		err := insertSection(r.Context(), app, section, data, false)
		if database.IsUniqueViolation(err) {
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "create_content.key", "section %q already exists", section.Key)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_content", err)
			return
		}
		created(w, r, section)
	}
}
