package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/model"
)

const (
	recentSurveysLimit  = 5
	recentActivityLimit = 10
)

// ResponseRate estimates daily responses per active survey over the last
// week, as a percentage capped at 100.
func ResponseRate(weekResponses, activeSurveys int) int {
	if activeSurveys <= 0 {
		return 0
	}
	return min(100, Percentage(weekResponses, activeSurveys*7))
}

// CountByDay groups timestamps by calendar date in loc, oldest day first.
// Days without responses are left out.
func CountByDay(timestamps []time.Time, loc *time.Location) []model.DayCount {
	days := []model.DayCount{}
	for _, ts := range timestamps {
		date := ts.In(loc).Format(time.DateOnly)
		if n := len(days); n > 0 && days[n-1].Date == date {
			days[n-1].Count++
			continue
		}
		days = append(days, model.DayCount{Date: date, Count: 1})
	}
	return days
}

func GetStats(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := app.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		weekAgo := now.AddDate(0, 0, -7)

		ctx := r.Context()
		dashboard := model.Dashboard{}
		stats := &dashboard.Stats

		counts := []struct {
			code  string
			dest  *int
			query string
			args  []any
		}{
			{"active_surveys", &stats.ActiveSurveys, `SELECT COUNT(*) FROM surveys WHERE is_active = $1`, []any{true}},
			{"total_surveys", &stats.TotalSurveys, `SELECT COUNT(*) FROM surveys`, nil},
			{"responses_today", &stats.ResponsesToday, `SELECT COUNT(*) FROM submissions WHERE submitted_at >= $1`, []any{midnight.UTC()}},
			{"total_responses", &stats.TotalResponses, `SELECT COUNT(*) FROM submissions`, nil},
			{"total_users", &stats.TotalUsers, `SELECT COUNT(*) FROM users`, nil},
		}
		for _, c := range counts {
			if err := app.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
				httpx.LogInternalError(w, r, "db.get_stats."+c.code, err)
				return
			}
		}

		rows, err := app.QueryContext(ctx, `
			SELECT submitted_at FROM submissions
			WHERE submitted_at >= $1
			ORDER BY submitted_at`,
			weekAgo.UTC(),
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_stats.week", err)
			return
		}
		defer rows.Close()

		var week []time.Time
		for rows.Next() {
			var ts time.Time
			if err := rows.Scan(&ts); err != nil {
				httpx.LogInternalError(w, r, "db.get_stats.week.scan", err)
				return
			}
			week = append(week, ts)
		}
		if err := rows.Err(); err != nil {
			httpx.LogInternalError(w, r, "db.get_stats.week.next", err)
			return
		}
		rows.Close()

		dashboard.ResponsesByDay = CountByDay(week, now.Location())
		stats.ResponseRate = fmt.Sprintf("%d%%", ResponseRate(len(week), stats.ActiveSurveys))

		dashboard.RecentSurveys, err = recentSurveys(r, app)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_stats.recent_surveys", err)
			return
		}
		dashboard.RecentActivity, err = recentActivity(r, app)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_stats.recent_activity", err)
			return
		}

		render.JSON(w, r, dashboard)
	}
}

func recentSurveys(r *http.Request, app app.App) ([]model.SurveySummary, error) {
	rows, err := app.QueryContext(r.Context(), `
		SELECT
			s.id, s.title, s.is_active, s.created_at,
			(SELECT COUNT(*) FROM submissions sub WHERE sub.survey_id = s.id)
		FROM surveys s
		ORDER BY s.created_at DESC
		LIMIT $1`,
		recentSurveysLimit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	surveys := []model.SurveySummary{}
	for rows.Next() {
		s := model.SurveySummary{}
		if err := rows.Scan(&s.ID, &s.Title, &s.IsActive, &s.CreatedAt, &s.ResponseCount); err != nil {
			return nil, err
		}
		surveys = append(surveys, s)
	}
	return surveys, rows.Err()
}

func recentActivity(r *http.Request, app app.App) ([]model.Activity, error) {
	rows, err := app.QueryContext(r.Context(), `
		SELECT s.title, sub.participant_name, sub.submitted_at
		FROM submissions sub
		INNER JOIN surveys s ON (s.id = sub.survey_id)
		ORDER BY sub.submitted_at DESC
		LIMIT $1`,
		recentActivityLimit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activity := []model.Activity{}
	for rows.Next() {
		a := model.Activity{Type: "response"}
		if err := rows.Scan(&a.SurveyTitle, &a.ParticipantName, &a.Timestamp); err != nil {
			return nil, err
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}
