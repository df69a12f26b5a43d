package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Token is the answer of POST /token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// NewUser is the registration payload.
type NewUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"nombre"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (Token, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var tok Token
	if err := c.sendForm(ctx, "/token", form, &tok); err != nil {
		return Token{}, err
	}
	if tok.AccessToken == "" {
		return Token{}, fmt.Errorf("api: login: empty access_token")
	}
	return tok, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, u NewUser) error {
	return c.sendJSON(ctx, http.MethodPost, "/register", nil, "", u, nil)
}

// Me returns the profile bound to token.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	var u User
	if err := c.getJSON(ctx, "/users/me/", nil, token, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUser returns the public profile of another user.
func (c *Client) GetUser(ctx context.Context, token string, id int64) (User, error) {
	var u User
	if err := c.getJSON(ctx, idPath("/usuarios/%d", id), nil, token, &u); err != nil {
		return User{}, err
	}
	return u, nil
}
