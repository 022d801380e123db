package client

import (
	"context"
	"net/http"
)

type credentials struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (c *Client) SignUp(ctx context.Context, name, email string) (*Session, error) {
	return c.session(ctx, "/auth/signup", name, email)
}

func (c *Client) LogIn(ctx context.Context, name, email string) (*Session, error) {
	return c.session(ctx, "/auth/login", name, email)
}

// session posts credentials and adopts the returned token, if any.
func (c *Client) session(ctx context.Context, path, name, email string) (*Session, error) {
	var out Session
	if _, err := c.do(ctx, request{method: http.MethodPost, path: path, body: credentials{Name: name, Email: email}}, &out); err != nil {
		return nil, err
	}
	if out.Token != "" {
		c.SetToken(out.Token)
	}
	return &out, nil
}

// LogOut revokes the current token on the server and forgets it locally.
func (c *Client) LogOut(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/auth/logout"}, &message{})
	c.SetToken("")
	return err
}

// RevokeToken revokes token on the server. The client's own token is left
// alone unless it is the one being revoked.
func (c *Client) RevokeToken(ctx context.Context, token string) error {
	_, err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/auth/logout",
		headers: map[string]string{"Authorization": "Bearer " + token},
	}, &message{})

	c.mu.Lock()
	if c.token == token {
		c.token = ""
	}
	c.mu.Unlock()
	return err
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
