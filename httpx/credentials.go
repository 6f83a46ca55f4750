package httpx

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/oauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/gyp-site/config"
	"github.com/mbolis/gyp-site/log"
	"github.com/mbolis/gyp-site/model"
)

// Claims carried by every token issued by the bearer server.
const (
	ClaimUserID = "user_id"
	ClaimRole   = "role"
	ClaimName   = "name"
)

// RefreshTokenTTL bounds how long a refresh token stays redeemable.
const RefreshTokenTTL = 30 * 24 * time.Hour

var errNotAuthorized = errors.New("not authorized")

type credentialsVerifier struct {
	db *sql.DB
}

// CredentialsVerifier checks user passwords against the users table and keeps
// refresh-token bookkeeping in the tokens table. Every failure, database
// errors included, denies access.
func CredentialsVerifier(db *sql.DB) oauth.CredentialsVerifier {
	return &credentialsVerifier{db}
}

func NewBearerServer(db *sql.DB, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(db), nil)
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return errNotAuthorized
	}

	var hash string
	err := cs.db.
		QueryRowContext(r.Context(), "SELECT password_hash FROM users WHERE email = $1", username).
		Scan(&hash)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.WithFields(log.Fields{"code": "db.validate_user.select"}).Error(err)
		}
		return errNotAuthorized
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return errNotAuthorized
	}
	return nil
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	_, err := cs.db.Exec(
		"INSERT INTO tokens (username, token_id, refresh_token_id, expiration) VALUES ($1, $2, $3, $4)",
		normalizeCredential(credential),
		tokenID,
		refreshTokenID,
		time.Now().UTC().Add(RefreshTokenTTL),
	)
	if err != nil {
		log.WithFields(log.Fields{"code": "db.store_token.insert"}).Error(err)
	}
	return err
}

// ValidateTokenID redeems a refresh token: the row is consumed whether or
// not it has expired, so each refresh token works at most once.
func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	tx, err := cs.db.Begin()
	if err != nil {
		log.WithFields(log.Fields{"code": "db.validate_token.begin"}).Error(err)
		return errNotAuthorized
	}
	defer tx.Rollback()

	key := []any{normalizeCredential(credential), tokenID, refreshTokenID}

	var expiration time.Time
	err = tx.
		QueryRow(`
			SELECT expiration FROM tokens
			WHERE username = $1
				AND token_id = $2
				AND refresh_token_id = $3`,
			key...,
		).
		Scan(&expiration)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.WithFields(log.Fields{"code": "db.validate_token.select"}).Error(err)
		}
		return errNotAuthorized
	}

	_, err = tx.Exec(`
		DELETE FROM tokens
		WHERE username = $1
			AND token_id = $2
			AND refresh_token_id = $3`,
		key...,
	)
	if err == nil {
		err = tx.Commit()
	}
	if err != nil {
		log.WithFields(log.Fields{"code": "db.validate_token.delete"}).Error(err)
		return errNotAuthorized
	}

	if expiration.Before(time.Now()) {
		return errNotAuthorized
	}
	return nil
}

func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	session, err := LookupSession(r.Context(), cs.db, credential)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		ClaimUserID: session.UserID,
		ClaimRole:   string(session.Role),
		ClaimName:   session.Name,
	}, nil
}

func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}

// LookupSession loads the current name and role of the user with the given
// email, so a refreshed token reflects role changes.
func LookupSession(ctx context.Context, db *sql.DB, email string) (model.Session, error) {
	session := model.Session{Email: normalizeCredential(email)}
	err := db.
		QueryRowContext(ctx, "SELECT id, name, role FROM users WHERE email = $1", session.Email).
		Scan(&session.UserID, &session.Name, &session.Role)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.WithFields(log.Fields{"code": "db.lookup_session.select"}).Error(err)
		}
		return model.Session{}, errNotAuthorized
	}
	return session, nil
}

// SessionFrom rebuilds the session from the claims oauth.Authorize placed in
// the request context.
func SessionFrom(ctx context.Context) (model.Session, bool) {
	claims, _ := ctx.Value(oauth.ClaimsContext).(map[string]string)
	credential, _ := ctx.Value(oauth.CredentialContext).(string)
	if claims == nil || claims[ClaimUserID] == "" {
		return model.Session{}, false
	}
	return model.Session{
		UserID: claims[ClaimUserID],
		Name:   claims[ClaimName],
		Email:  credential,
		Role:   model.Role(claims[ClaimRole]),
	}, true
}

func normalizeCredential(credential string) string {
	return strings.ToLower(strings.TrimSpace(credential))
}
