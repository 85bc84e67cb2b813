package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"pfa/internal/models"
)

// Login exchanges credentials for an access token. The API takes an OAuth2
// password form with the email as username.
func (c *Client) Login(ctx context.Context, email, password string) (models.Token, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := c.newRequest(public(ctx), http.MethodPost, "/auth/login", nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return models.Token{}, err
	}

	var token models.Token
	if err := c.do(req, &token); err != nil {
		return models.Token{}, err
	}
	return token, nil
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, in models.RegisterRequest) (models.Account, error) {
	var account models.Account
	if err := c.doJSON(public(ctx), http.MethodPost, "/auth/register", nil, in, &account); err != nil {
		return models.Account{}, err
	}
	return account, nil
}
