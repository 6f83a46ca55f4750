package routes

import (
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/testutil"
)

var errBroken = errors.New("connection reset by peer")

func mockApp(t *testing.T) (app.App, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	return app.New(db, testutil.Config(t)), mock
}

func TestDatabaseFailuresAreOpaque(t *testing.T) {
	tests := []struct {
		name   string
		expect func(sqlmock.Sqlmock)
		req    *http.Request
	}{
		{
			name:   "list surveys",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery(`FROM surveys`).WillReturnError(errBroken) },
			req:    testutil.MakeRequest(http.MethodGet, "/api/surveys", nil, ""),
		},
		{
			name:   "get survey",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery(`WHERE s.id = \$1`).WillReturnError(errBroken) },
			req:    testutil.MakeRequest(http.MethodGet, "/api/surveys/"+uuid.NewString(), nil, ""),
		},
		{
			name:   "submit response",
			expect: func(m sqlmock.Sqlmock) { m.ExpectBegin().WillReturnError(errBroken) },
			req: testutil.MakeRequest(http.MethodPost, "/api/surveys/"+uuid.NewString()+"/respond", map[string]any{
				"participantName": "Ana",
				"answers":         []any{map[string]any{"questionId": uuid.NewString(), "textValue": "x"}},
			}, ""),
		},
		{
			name: "submit response insert",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(`SELECT is_active FROM surveys`).WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(true))
				m.ExpectQuery(`SELECT id, type FROM questions`).WillReturnRows(sqlmock.NewRows([]string{"id", "type"}))
				m.ExpectQuery(`FROM question_options`).WillReturnRows(sqlmock.NewRows([]string{"id", "question_id"}))
				m.ExpectExec(`INSERT INTO submissions`).WillReturnError(errBroken)
				m.ExpectRollback()
			},
			req: testutil.MakeRequest(http.MethodPost, "/api/surveys/"+uuid.NewString()+"/respond", map[string]any{
				"participantName": "Ana",
				"answers":         []any{map[string]any{"textValue": "x"}},
			}, ""),
		},
		{
			name:   "results",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery(`SELECT s.title`).WillReturnError(errBroken) },
			req:    testutil.MakeRequest(http.MethodGet, "/api/surveys/"+uuid.NewString()+"/respond", nil, ""),
		},
		{
			name:   "gallery",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery(`FROM work_gallery`).WillReturnError(errBroken) },
			req:    testutil.MakeRequest(http.MethodGet, "/api/gallery", nil, ""),
		},
		{
			name:   "navigation",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery(`FROM navigation_links`).WillReturnError(errBroken) },
			req:    testutil.MakeRequest(http.MethodGet, "/api/navigation", nil, ""),
		},
		{
			name:   "content",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery(`FROM site_content`).WillReturnError(errBroken) },
			req:    testutil.MakeRequest(http.MethodGet, "/api/content", nil, ""),
		},
		{
			name:   "contact",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery(`FROM contact_messages`).WillReturnError(errBroken) },
			req:    testutil.MakeRequest(http.MethodPost, "/api/contact", contactForm("Cotización", "Quisiera una cotización."), ""),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, mock := mockApp(t)
			tt.expect(mock)

			w := testutil.Serve(Wire(a), tt.req)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
			assert.NotContains(t, w.Body.String(), errBroken.Error())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLoginDatabaseFailureIsUnauthorized(t *testing.T) {
	a, mock := mockApp(t)
	mock.ExpectQuery(`FROM users`).WillReturnError(errBroken)

	w := testutil.Serve(Wire(a), testutil.MakeRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": "whatever",
	}, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, badCredentials, testutil.ErrorBody(t, w).Error)
}

func TestUpdateUserRowsAffectedFailure(t *testing.T) {
	a, mock := mockApp(t)
	mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewErrorResult(errBroken))

	w := testutil.Serve(UpdateUser(a), testutil.MakeRequest(http.MethodPut, "/api/users", map[string]any{
		"id":   uuid.NewString(),
		"name": "Nuevo",
	}, ""))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealth(t *testing.T) {
	a, mock := mockApp(t)
	h := Wire(a)

	mock.ExpectPing()
	w := testutil.Serve(h, testutil.MakeRequest(http.MethodGet, "/health", nil, ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	mock.ExpectPing().WillReturnError(errBroken)
	w = testutil.Serve(h, testutil.MakeRequest(http.MethodGet, "/health", nil, ""))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
