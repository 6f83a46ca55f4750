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

func TestGallery(t *testing.T) {
	env := testutil.NewEnv(t)
	h := Wire(env.App)

	create := func(title string, order int) model.GalleryItem {
		w := testutil.Serve(h, testutil.MakeRequest(http.MethodPost, "/api/gallery", map[string]any{
			"title":         title,
			"image_url":     "/uploads/" + title + ".png",
			"display_order": order,
		}, env.AdminToken))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var item model.GalleryItem
		testutil.DecodeJSON(t, w, &item)
		return item
	}
	second := create("second", 2)
	first := create("first", 1)
	hidden := create("hidden", 0)
	assert.True(t, first.IsVisible)

	hide := false
	w := testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/gallery", model.UpdateGalleryItemRequest{
		ID:        hidden.ID,
		IsVisible: &hide,
	}, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var patched model.GalleryItem
	testutil.DecodeJSON(t, w, &patched)
	assert.False(t, patched.IsVisible)
	assert.Equal(t, "hidden", patched.Title)

	list := func(path string) []string {
		w := testutil.Serve(h, testutil.MakeRequest(http.MethodGet, path, nil, ""))
		require.Equal(t, http.StatusOK, w.Code)
		var items []model.GalleryItem
		testutil.DecodeJSON(t, w, &items)
		var titles []string
		for _, i := range items {
			titles = append(titles, i.Title)
		}
		return titles
	}
	assert.Equal(t, []string{"hidden", "first", "second"}, list("/api/gallery"))
	assert.Equal(t, []string{"first", "second"}, list("/api/gallery?visible=true"))

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodDelete, "/api/gallery?id="+second.ID, nil, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Equal(t, []string{"first"}, list("/api/gallery?visible=true"))

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodDelete, "/api/gallery?id="+second.ID, nil, env.AdminToken))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPost, "/api/gallery", map[string]any{"title": "no image"}, env.AdminToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]string{"image_url": "is required"}, testutil.ErrorBody(t, w).Errors)
}

func TestClients(t *testing.T) {
	env := testutil.NewEnv(t)
	h := Wire(env.App)

	w := testutil.Serve(h, testutil.MakeRequest(http.MethodPost, "/api/clients", map[string]any{
		"name":    "Acme",
		"website": "https://acme.example",
	}, env.AdminToken))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var client model.Client
	testutil.DecodeJSON(t, w, &client)

	desc := "Cliente desde 2010"
	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/clients", model.UpdateClientRequest{
		ID:          client.ID,
		Description: &desc,
	}, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodGet, "/api/clients", nil, ""))
	require.Equal(t, http.StatusOK, w.Code)
	var clients []model.Client
	testutil.DecodeJSON(t, w, &clients)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme", clients[0].Name)
	assert.Equal(t, "https://acme.example", clients[0].Website)
	assert.Equal(t, desc, clients[0].Description)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/clients", model.UpdateClientRequest{
		ID: uuid.NewString(),
	}, env.AdminToken))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodDelete, "/api/clients?id=nope", nil, env.AdminToken))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodDelete, "/api/clients?id="+client.ID, nil, env.AdminToken))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, testutil.Count(t, env.App.DB, `SELECT COUNT(*) FROM clients`))
}

func TestTeam(t *testing.T) {
	env := testutil.NewEnv(t)
	h := Wire(env.App)

	var members []model.TeamMember
	for _, name := range []string{"Ana", "Luis", "Eva"} {
		w := testutil.Serve(h, testutil.MakeRequest(http.MethodPost, "/api/team", map[string]any{
			"name":     name,
			"position": "Analista",
		}, env.AdminToken))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var m model.TeamMember
		testutil.DecodeJSON(t, w, &m)
		members = append(members, m)
	}
	assert.Equal(t, 1, members[0].DisplayOrder)
	assert.Equal(t, 3, members[2].DisplayOrder)

	hide := false
	w := testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/team", model.UpdateTeamMemberRequest{
		ID:        members[1].ID,
		IsVisible: &hide,
	}, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	names := func(path string) []string {
		w := testutil.Serve(h, testutil.MakeRequest(http.MethodGet, path, nil, ""))
		require.Equal(t, http.StatusOK, w.Code)
		var team []model.TeamMember
		testutil.DecodeJSON(t, w, &team)
		var out []string
		for _, m := range team {
			out = append(out, m.Name)
		}
		return out
	}
	assert.Equal(t, []string{"Ana", "Eva"}, names("/api/team"))
	assert.Equal(t, []string{"Ana", "Luis", "Eva"}, names("/api/team?all=true"))

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodDelete, "/api/team?id="+members[2].ID, nil, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPost, "/api/team", map[string]any{
		"name":     "Sol",
		"position": "Directora",
	}, env.AdminToken))
	require.Equal(t, http.StatusCreated, w.Code)
	var sol model.TeamMember
	testutil.DecodeJSON(t, w, &sol)
	assert.Equal(t, 3, sol.DisplayOrder)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPost, "/api/team", map[string]any{"name": "Sin cargo"}, env.AdminToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]string{"position": "is required"}, testutil.ErrorBody(t, w).Errors)
}

func TestNavigation(t *testing.T) {
	env := testutil.NewEnv(t)
	h := Wire(env.App)

	get := func() []model.NavigationLink {
		w := testutil.Serve(h, testutil.MakeRequest(http.MethodGet, "/api/navigation", nil, ""))
		require.Equal(t, http.StatusOK, w.Code)
		var links []model.NavigationLink
		testutil.DecodeJSON(t, w, &links)
		return links
	}

	defaults := get()
	require.Len(t, defaults, 5)
	assert.Equal(t, "Servicios", defaults[0].Label)
	assert.Equal(t, "Contacto", defaults[4].Label)

	hidden := false
	w := testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/navigation", map[string]any{
		"links": []model.NavigationLink{
			{Label: "Blog", Href: "/blog", DisplayOrder: 2},
			{Label: "Inicio", Href: "/", DisplayOrder: 1},
			{Label: "Oculto", Href: "/x", DisplayOrder: 3, IsVisible: &hidden},
		},
	}, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var all []model.NavigationLink
	testutil.DecodeJSON(t, w, &all)
	require.Len(t, all, 3)
	assert.Equal(t, "Inicio", all[0].Label)
	require.NotNil(t, all[2].IsVisible)
	assert.False(t, *all[2].IsVisible)

	links := get()
	require.Len(t, links, 2)
	assert.Equal(t, "Inicio", links[0].Label)
	assert.Equal(t, "Blog", links[1].Label)

	// everything hidden is not the same as nothing configured
	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/navigation", map[string]any{
		"links": []model.NavigationLink{{Label: "Oculto", Href: "/x", IsVisible: &hidden}},
	}, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, get())

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/navigation", map[string]any{
		"links": []model.NavigationLink{{Label: "", Href: "/x"}},
	}, env.AdminToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]string{"links[0].label": "is required"}, testutil.ErrorBody(t, w).Errors)
	assert.Equal(t, 1, testutil.Count(t, env.App.DB, `SELECT COUNT(*) FROM navigation_links`))
}

func TestServices(t *testing.T) {
	env := testutil.NewEnv(t)
	h := Wire(env.App)

	w := testutil.Serve(h, testutil.MakeRequest(http.MethodPost, "/api/services", map[string]any{
		"title":       "Estudios de mercado",
		"description": "Cuantitativos y cualitativos",
		"features":    []string{"Encuestas", "Focus groups"},
	}, env.AdminToken))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first model.Service
	testutil.DecodeJSON(t, w, &first)
	assert.Equal(t, "chart", first.Icon)
	assert.Equal(t, 1, first.DisplayOrder)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPost, "/api/services", map[string]any{
		"title":       "Consultoría",
		"description": "Estrategia",
		"icon":        "users",
	}, env.AdminToken))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var second model.Service
	testutil.DecodeJSON(t, w, &second)
	assert.Equal(t, 2, second.DisplayOrder)
	assert.Equal(t, model.Features{}, second.Features)

	features := model.Features{"Encuestas", "Focus groups", "Paneles"}
	hide := false
	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/services", model.UpdateServiceRequest{
		ID:       first.ID,
		Features: &features,
	}, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var patched model.Service
	testutil.DecodeJSON(t, w, &patched)
	assert.Equal(t, features, patched.Features)
	assert.Equal(t, "Estudios de mercado", patched.Title)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPut, "/api/services", model.UpdateServiceRequest{
		ID:        second.ID,
		IsVisible: &hide,
	}, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	list := func(path string) []model.Service {
		w := testutil.Serve(h, testutil.MakeRequest(http.MethodGet, path, nil, ""))
		require.Equal(t, http.StatusOK, w.Code)
		var services []model.Service
		testutil.DecodeJSON(t, w, &services)
		return services
	}
	visible := list("/api/services")
	require.Len(t, visible, 1)
	assert.Equal(t, features, visible[0].Features)
	assert.Len(t, list("/api/services?all=true"), 2)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodPost, "/api/services", map[string]any{
		"title":    "Sin descripción",
		"features": []string{"ok", " "},
	}, env.AdminToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]string{
		"description": "is required",
		"features[1]": "is required",
	}, testutil.ErrorBody(t, w).Errors)

	w = testutil.Serve(h, testutil.MakeRequest(http.MethodDelete, "/api/services?id="+second.ID, nil, env.AdminToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list("/api/services?all=true"), 1)
}
