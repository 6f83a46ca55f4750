package app

import (
	"database/sql"
	"time"

	"github.com/go-chi/oauth"

	"github.com/mbolis/gyp-site/config"
	"github.com/mbolis/gyp-site/httpx"
)

// App carries what every controller needs: the connection pool, the token
// issuer and the configuration.
type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	// Clock defaults to time.Now; tests pin it.
	Clock func() time.Time
}

func New(db *sql.DB, cfg config.Config) App {
	return App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Clock:        time.Now,
	}
}

func (a App) Now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock()
}
