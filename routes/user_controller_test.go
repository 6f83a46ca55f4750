package routes

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/gyp-site/model"
	"github.com/mbolis/gyp-site/testutil"
)

func TestListUsers(t *testing.T) {
	env := testutil.NewEnv(t)
	w := testutil.Serve(Wire(env.App), testutil.MakeRequest(http.MethodGet, "/api/users", nil, env.EditorToken))
	require.Equal(t, http.StatusOK, w.Code)

	var users []model.User
	testutil.DecodeJSON(t, w, &users)
	assert.Len(t, users, 2)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestCreateUser(t *testing.T) {
	env := testutil.NewEnv(t)
	h := Wire(env.App)

	tests := []struct {
		role string
		want model.Role
	}{
		{"admin", model.RoleAdmin},
		{"editor", model.RoleEditor},
		{"user", model.RoleEditor},
		{"", model.RoleEditor},
	}
	for i, tt := range tests {
		email := string(rune('a'+i)) + "@example.com"
		w := testutil.Serve(h, testutil.MakeRequest(http.MethodPost, "/api/users", map[string]string{
			"name":     "Staff",
			"email":    email,
			"password": "pw",
			"role":     tt.role,
		}, env.AdminToken))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var user model.User
		testutil.DecodeJSON(t, w, &user)
		assert.Equal(t, tt.want, user.Role, "role %q", tt.role)
	}

	w := testutil.Serve(h, testutil.MakeRequest(http.MethodPost, "/api/users", map[string]string{
		"name":     "Dup",
		"email":    testutil.EditorEmail,
		"password": "pw",
	}, env.AdminToken))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, duplicateEmail, testutil.ErrorBody(t, w).Error)
}

func TestUpdateUser(t *testing.T) {
	env := testutil.NewEnv(t)
	h := Wire(env.App)

	w := testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/users", map[string]any{
		"id":       env.EditorID,
		"name":     "Editora",
		"password": "new-password",
		"role":     "admin",
	}, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user model.User
	testutil.DecodeJSON(t, w, &user)
	assert.Equal(t, "Editora", user.Name)
	assert.Equal(t, testutil.EditorEmail, user.Email)
	assert.Equal(t, model.RoleAdmin, user.Role)

	body := login(t, h, testutil.EditorEmail, "new-password")
	assert.Equal(t, model.RoleAdmin, body.User.Role)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/users", map[string]any{
		"id":    env.EditorID,
		"email": testutil.AdminEmail,
	}, env.AdminToken))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/users", map[string]any{
		"id":   uuid.NewString(),
		"name": "ghost",
	}, env.AdminToken))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/users", map[string]any{"name": "x"}, env.AdminToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]string{"id": "is required"}, testutil.ErrorBody(t, w).Errors)
}

func TestDeleteUser(t *testing.T) {
	env := testutil.NewEnv(t)
	h := Wire(env.App)

	w := testutil.Serve(h, testutil.MakeRequest(http.MethodDelete, "/api/users?id="+env.AdminID, nil, env.AdminToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "you cannot delete your own account", testutil.ErrorBody(t, w).Error)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodDelete, "/api/users", nil, env.AdminToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodDelete, "/api/users?id="+uuid.NewString(), nil, env.AdminToken))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodDelete, "/api/users?id="+env.EditorID, nil, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Equal(t, 1, testutil.Count(t, env.App.DB, `SELECT COUNT(*) FROM users`))
}

func TestDeleteUserKeepsSurveys(t *testing.T) {
	env := testutil.NewEnv(t)
	h := Wire(env.App)
	survey := testutil.CreateSurvey(t, env.App.DB, env.EditorID, "De editor", true,
		testutil.Choice("Sí o no", model.SingleChoice, "sí", "no"),
	)
	q := survey.Questions[0]
	res := respond(t, h, survey.ID, map[string]any{
		"participantName": "Ana",
		"answers": []any{
			map[string]any{"questionId": q.ID, "selectedOptionId": q.Options[0].ID},
		},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	w := testutil.Serve(h, testutil.MakeRequest(http.MethodDelete, "/api/users?id="+env.EditorID, nil, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1, testutil.Count(t, env.App.DB, `SELECT COUNT(*) FROM surveys`))
	assert.Equal(t, 1, testutil.Count(t, env.App.DB, `SELECT COUNT(*) FROM surveys WHERE created_by IS NULL`))
	assert.Equal(t, 1, testutil.Count(t, env.App.DB, `SELECT COUNT(*) FROM submissions`))
	assert.Equal(t, 1, testutil.Count(t, env.App.DB, `SELECT COUNT(*) FROM answers`))

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodGet, "/api/surveys/"+survey.ID, nil, ""))
	require.Equal(t, http.StatusOK, w.Code)
	var got model.Survey
	testutil.DecodeJSON(t, w, &got)
	assert.Empty(t, got.CreatedByName)
	assert.Equal(t, 1, got.ResponseCount)
}

func TestAdminEndpointsRejectEditors(t *testing.T) {
	env := testutil.NewEnv(t)
	h := Wire(env.App)

	endpoints := []struct{ method, path string }{
		{http.MethodPost, "/api/users"},
		{http.MethodPut, "/api/users"},
		{http.MethodDelete, "/api/users?id=" + env.AdminID},
		{http.MethodPut, "/api/content"},
		{http.MethodPost, "/api/content"},
		{http.MethodPost, "/api/gallery"},
		{http.MethodPut, "/api/gallery"},
		{http.MethodDelete, "/api/gallery?id=" + uuid.NewString()},
		{http.MethodPost, "/api/clients"},
		{http.MethodPut, "/api/clients"},
		{http.MethodDelete, "/api/clients?id=" + uuid.NewString()},
		{http.MethodPost, "/api/team"},
		{http.MethodPut, "/api/team"},
		{http.MethodDelete, "/api/team?id=" + uuid.NewString()},
		{http.MethodPost, "/api/services"},
		{http.MethodPut, "/api/services"},
		{http.MethodDelete, "/api/services?id=" + uuid.NewString()},
		{http.MethodPut, "/api/navigation"},
		{http.MethodPost, "/api/upload"},
		{http.MethodGet, "/api/contact"},
	}
	for _, e := range endpoints {
		t.Run(e.method+" "+e.path, func(t *testing.T) {
			w := testutil.Serve(h, testutil.MakeRequest(e.method, e.path, map[string]any{}, env.EditorToken))
			assert.Equal(t, http.StatusForbidden, w.Code)

			w = testutil.Serve(h, testutil.MakeRequest(e.method, e.path, map[string]any{}, ""))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
	assert.Equal(t, 2, testutil.Count(t, env.App.DB, `SELECT COUNT(*) FROM users`))
}
