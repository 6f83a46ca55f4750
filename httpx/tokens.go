package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/oauth"
)

// TokenResponse mirrors the JSON the bearer server issues.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// RequestTokens runs a token grant against the bearer server without going
// through the network. A non-200 status is returned as is, with a nil error.
func RequestTokens(ctx context.Context, bs *oauth.BearerServer, form url.Values) (TokenResponse, int, error) {
	body := form.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/token", strings.NewReader(body))
	if err != nil {
		return TokenResponse{}, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	buf := NewResponseBuffer()
	bs.UserCredentials(buf, req)
	if buf.Status() != http.StatusOK {
		return TokenResponse{}, buf.Status(), nil
	}

	var tokens TokenResponse
	if err := json.Unmarshal(buf.Body(), &tokens); err != nil {
		return TokenResponse{}, 0, fmt.Errorf("decode token response: %w", err)
	}
	return tokens, http.StatusOK, nil
}

func PasswordGrant(username, password string) url.Values {
	return url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
}

func RefreshGrant(refreshToken string) url.Values {
	return url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
}
