package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	DBUrl         string
	TokenSecret   string
	TokenTTL      time.Duration
	PublicDir     string
	PrivateDir    string
	UploadDir     string
	AdminEmail    string
	AdminPassword string
	Debug         bool
	LogJSON       bool
}

// Load reads an optional .env file, then parses flags whose defaults come
// from the environment. Flags win over environment variables.
func Load(args []string) (cfg Config, err error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("gyp-site", flag.ContinueOnError)
	var host string
	fs.StringVar(&host, "host", env("HOST", "0.0.0.0"), "listen host name")
	var port uint
	fs.UintVar(&port, "port", envUint("PORT", 80), "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", env("DATABASE_URL", ""), "postgres:// URL or path to a SQLite3 DB file")
	fs.StringVar(&cfg.TokenSecret, "token-secret", env("SESSION_SECRET", ""), "secret key for session token encryption")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", envUint("TOKEN_TTL", 3600), "session token TTL in seconds")
	fs.StringVar(&cfg.PublicDir, "public-dir", env("PUBLIC_DIR", "public"), "directory served as the public site")
	fs.StringVar(&cfg.PrivateDir, "private-dir", env("PRIVATE_DIR", "private"), "directory served as the admin panel")
	fs.StringVar(&cfg.UploadDir, "upload-dir", env("UPLOAD_DIR", "public/uploads"), "directory receiving uploaded images")
	fs.StringVar(&cfg.AdminEmail, "admin-email", env("ADMIN_EMAIL", ""), "bootstrap admin account email")
	fs.StringVar(&cfg.AdminPassword, "admin-password", env("ADMIN_PASSWORD", ""), "bootstrap admin account password")
	fs.BoolVar(&cfg.Debug, "debug", envBool("DEBUG"), "log at DEBUG level")
	fs.BoolVar(&cfg.LogJSON, "log-json", envBool("LOG_JSON"), "log one JSON object per line")
	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret (SESSION_SECRET)")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint) uint {
	v, err := strconv.ParseUint(os.Getenv(key), 10, 32)
	if err != nil {
		return fallback
	}
	return uint(v)
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}
