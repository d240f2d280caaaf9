package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"campusnet/internal/models"
	"campusnet/internal/session"
)

// AuthClient talks to the identity provider's token endpoints.
type AuthClient struct {
	baseURL string
	apiKey  string
	token   TokenSource
	http    *http.Client
}

// NewAuthClient returns an identity-provider client rooted at baseURL.
func NewAuthClient(baseURL, apiKey string, token TokenSource) *AuthClient {
	return &AuthClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		token:   token,
		http:    &http.Client{},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (a *AuthClient) post(ctx context.Context, path string, body any) (*session.Session, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("apikey", a.apiKey)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, models.NewRemoteError("auth", err)
	}
	if resp.StatusCode >= 300 {
		return nil, models.NewUnauthorizedError(decodeServiceError(resp).Error())
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, models.NewRemoteError("auth", err)
	}

	sess, err := session.FromAccessToken(tr.AccessToken)
	if err != nil {
		return nil, models.NewRemoteError("auth", err)
	}
	return sess, nil
}

// SignUp registers a new account and returns its session.
func (a *AuthClient) SignUp(ctx context.Context, email, password, name string) (*session.Session, error) {
	return a.post(ctx, "/auth/signup", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	})
}

// SignIn exchanges credentials for a session.
func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	return a.post(ctx, "/auth/signin", map[string]string{
		"email":    email,
		"password": password,
	})
}

// SignOut invalidates the current session server-side. A failure here is not
// fatal; the client clears its session regardless.
func (a *AuthClient) SignOut(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/signout", nil)
	if err != nil {
		return models.NewInternalError(err)
	}
	if tok := a.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return models.NewRemoteError("auth", err)
	}
	resp.Body.Close()
	return nil
}
