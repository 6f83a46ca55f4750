package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/log"
	"github.com/mbolis/gyp-site/model"
	"github.com/mbolis/gyp-site/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
	)

	root.Get("/health", Health(app))
	root.Mount("/api", apiRouter(app))

	root.With(
		middlewares.CookieAuth(app.BearerServer, "/login"),
		middlewares.Authenticated(app.TokenSecret),
		middlewares.RequireRole(model.RoleAdmin),
	).Mount("/admin", servePrivateFiles("/admin", app.PrivateDir))
	root.Mount("/", servePublicFiles(app.PublicDir))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	api.Use(render.SetContentType(render.ContentTypeJSON))

	authenticated := middlewares.Authenticated(app.TokenSecret)
	admin := middlewares.RequireRole(model.RoleAdmin)

	loginLimit := middlewares.NewRateLimiter(2*time.Second, 30)
	contactLimit := middlewares.NewRateLimiter(time.Minute, 10)

	api.Route("/auth", func(r chi.Router) {
		r.With(loginLimit.Middleware).Post("/login", Login(app))
		r.With(loginLimit.Middleware).Post("/register", Register(app))
		r.Post("/refresh", Refresh(app))
		r.Post("/logout", Logout)
		r.With(authenticated).Get("/me", Me)
	})

	api.Route("/surveys", func(r chi.Router) {
		r.Get("/", ListSurveys(app))
		r.Get("/{id}", GetSurveyById(app))
		r.Post("/{id}/respond", SubmitResponse(app))
		r.Get("/{id}/respond", GetResults(app))

		// any role may edit surveys
		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/", CreateSurvey(app))
			r.Put("/{id}", UpdateSurvey(app))
			r.Delete("/{id}", DeleteSurvey(app))
		})
	})

	api.With(authenticated).Get("/stats", GetStats(app))

	api.Route("/users", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/", ListUsers(app))
		r.With(admin).Post("/", CreateUser(app))
		r.With(admin).Put("/", UpdateUser(app))
		r.With(admin).Delete("/", DeleteUser(app))
	})

	api.Route("/content", func(r chi.Router) {
		r.Get("/", GetContent(app))
		r.With(authenticated, admin).Put("/", UpsertContent(app))
		r.With(authenticated, admin).Post("/", CreateContent(app))
	})

	crud := []struct {
		path                           string
		list, create, update, deleteFn http.HandlerFunc
	}{
		{"/gallery", ListGallery(app), CreateGalleryItem(app), UpdateGalleryItem(app), DeleteGalleryItem(app)},
		{"/clients", ListClients(app), CreateClient(app), UpdateClient(app), DeleteClient(app)},
		{"/team", ListTeam(app), CreateTeamMember(app), UpdateTeamMember(app), DeleteTeamMember(app)},
		{"/services", ListServices(app), CreateService(app), UpdateService(app), DeleteService(app)},
	}
	for _, c := range crud {
		api.Route(c.path, func(r chi.Router) {
			r.Get("/", c.list)
			r.Group(func(r chi.Router) {
				r.Use(authenticated, admin)
				r.Post("/", c.create)
				r.Put("/", c.update)
				r.Delete("/", c.deleteFn)
			})
		})
	}

	api.Route("/navigation", func(r chi.Router) {
		r.Get("/", GetNavigation(app))
		r.With(authenticated, admin).Put("/", UpdateNavigation(app))
	})

	api.With(authenticated, admin).Post("/upload", Upload(app))

	api.Route("/contact", func(r chi.Router) {
		r.With(contactLimit.Middleware).Post("/", SubmitContact(app))
		r.With(authenticated, admin).Get("/", ListContactMessages(app))
	})

	return api
}

func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := app.PingContext(r.Context()); err != nil {
			log.Warnf("health: database unreachable: %v", err)
			status = "database unreachable"
			code = http.StatusServiceUnavailable
		}
		render.Status(r, code)
		render.JSON(w, r, map[string]string{"status": status})
	}
}

func servePublicFiles(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}

func servePrivateFiles(path string, dir string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir(dir)))
}
