package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"civil-quiz/internal/domain"
)

// DefaultAuthMessage is shown when the endpoint rejects a code without a message.
const DefaultAuthMessage = "Invalid Code or Code Expired"

// AuthClient calls the code-verification endpoint with
// GET ?code=&name=&qual=.
type AuthClient struct {
	http     *http.Client
	endpoint string
}

func NewAuthClient(client *http.Client, endpoint string) *AuthClient {
	return &AuthClient{http: client, endpoint: endpoint}
}

// The upstream service reports success in either field.
type authResponse struct {
	Status  string `json:"status"`
	Result  string `json:"result"`
	Message string `json:"message"`
}

func (c *AuthClient) Verify(ctx context.Context, name, qualification, code string) error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return &domain.NetworkError{Op: "verify code", Err: fmt.Errorf("parse endpoint: %w", err)}
	}
	q := u.Query()
	q.Set("code", code)
	q.Set("name", name)
	q.Set("qual", qualification)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &domain.NetworkError{Op: "verify code", Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: "verify code", Err: err}
	}
	defer resp.Body.Close()

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return &domain.NetworkError{Op: "verify code", Err: fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)}
	}
	if body.Status == "success" || body.Result == "success" {
		return nil
	}
	msg := body.Message
	if msg == "" {
		msg = DefaultAuthMessage
	}
	return &domain.AuthenticationError{Message: msg}
}
