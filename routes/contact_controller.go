package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/log"
	"github.com/mbolis/gyp-site/model"
)

const (
	contactDailyLimit   = 5
	contactSubjectDedup = 24 * time.Hour
	contactMessageDedup = time.Hour
	contactPageLimit    = 100
	contactPageDefault  = 50
)

type contactReceipt struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

func sanitizeContact(req model.ContactRequest) model.ContactRequest {
	return model.ContactRequest{
		Name:      truncate(strings.TrimSpace(req.Name), 100),
		Company:   truncate(strings.TrimSpace(req.Company), 100),
		Email:     truncate(strings.ToLower(strings.TrimSpace(req.Email)), 255),
		Phone:     truncate(httpx.PhoneDigits(req.Phone), 9),
		BirthDate: strings.TrimSpace(req.BirthDate),
		Subject:   truncate(strings.TrimSpace(req.Subject), 200),
		Message:   truncate(strings.TrimSpace(req.Message), 1000),
	}
}

// SubmitContact stores a contact form message. Per email, a subject can be
// sent once a day, at most five messages a day, and the same text once an
// hour.
func SubmitContact(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.ContactRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "contact.parse_body", "invalid JSON body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Company = strings.TrimSpace(req.Company)
		req.Email = strings.TrimSpace(req.Email)
		req.Subject = strings.TrimSpace(req.Subject)
		req.Message = strings.TrimSpace(req.Message)
		if fields := httpx.Validate(&req); fields != nil {
			httpx.LogStatusFields(w, r, http.StatusBadRequest, "contact.validate", "invalid form data", fields)
			return
		}
		msg := sanitizeContact(req)

		now := app.Now().UTC().Truncate(time.Microsecond)
		birthDate, err := httpx.ParseBirthDate(msg.BirthDate, now)
		if err != nil {
			httpx.LogInvalid(w, r, "contact.birth_date", map[string]string{"birthDate": "must be a valid past date in dd/mm/yyyy format"})
			return
		}

		var n int
		err = app.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM contact_messages
			WHERE email = $1 AND subject = $2 AND created_at > $3`,
			msg.Email, msg.Subject, now.Add(-contactSubjectDedup),
		).Scan(&n)
		if err != nil {
			httpx.LogInternalError(w, r, "db.contact.dedup_subject", err)
			return
		}
		if n > 0 {
			httpx.LogStatusFields(w, r, http.StatusConflict, "contact.dedup_subject",
				"a message with this subject was already sent, please wait 24 hours",
				map[string]string{"subject": "duplicate message"})
			return
		}

		err = app.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM contact_messages
			WHERE email = $1 AND created_at > $2`,
			msg.Email, now.Add(-24*time.Hour),
		).Scan(&n)
		if err != nil {
			httpx.LogInternalError(w, r, "db.contact.daily", err)
			return
		}
		if n >= contactDailyLimit {
			httpx.LogStatusFields(w, r, http.StatusTooManyRequests, "contact.daily",
				"daily message limit reached, try again tomorrow",
				map[string]string{"email": "message limit reached"})
			return
		}

		err = app.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM contact_messages
			WHERE email = $1 AND message = $2 AND created_at > $3`,
			msg.Email, msg.Message, now.Add(-contactMessageDedup),
		).Scan(&n)
		if err != nil {
			httpx.LogInternalError(w, r, "db.contact.dedup_message", err)
			return
		}
		if n > 0 {
			httpx.LogStatusFields(w, r, http.StatusConflict, "contact.dedup_message",
				"this message was already sent recently",
				map[string]string{"message": "duplicate message"})
			return
		}

		receipt := contactReceipt{
			Success:   true,
			Message:   "message sent",
			ID:        uuid.NewString(),
			Timestamp: now,
		}
		_, err = app.ExecContext(r.Context(), `
			INSERT INTO contact_messages (id, name, company, email, phone, birth_date, subject, message, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			receipt.ID,
			msg.Name,
			msg.Company,
			msg.Email,
			msg.Phone,
			birthDate,
			msg.Subject,
			msg.Message,
			now,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.contact.insert", err)
			return
		}

		created(w, r, receipt)
	}
}

func ListContactMessages(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := model.ContactPage{
			Messages: []model.ContactMessage{},
			Limit:    min(queryInt(r, "limit", contactPageDefault), contactPageLimit),
			Offset:   queryInt(r, "offset", 0),
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT id, name, company, email, phone, birth_date, subject, message, created_at
			FROM contact_messages
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`,
			page.Limit, page.Offset,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_contact", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			m := model.ContactMessage{}
			err := rows.Scan(&m.ID, &m.Name, &m.Company, &m.Email, &m.Phone, &m.BirthDate, &m.Subject, &m.Message, &m.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_contact.scan", err)
				return
			}
			page.Messages = append(page.Messages, m)
		}
		if err := rows.Err(); err != nil {
			httpx.LogInternalError(w, r, "db.get_contact.next", err)
			return
		}
		rows.Close()

		err = app.QueryRowContext(r.Context(), `SELECT COUNT(*) FROM contact_messages`).Scan(&page.Total)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_contact.count", err)
			return
		}

		render.JSON(w, r, page)
	}
}
