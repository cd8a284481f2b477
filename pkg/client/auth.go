package client

import (
	"context"
	"net/http"

	"github.com/sallamaty/rounds-console/pkg/models"
)

// SignIn exchanges credentials for an access token and the signed-in user
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return send[models.AuthResponse](ctx, c, http.MethodPost, "/auth/signin", models.SignInRequest{
		Email:    email,
		Password: password,
	})
}

// Register creates an account and signs it in
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	return send[models.AuthResponse](ctx, c, http.MethodPost, "/auth/register", req)
}

// GoogleSignIn exchanges a Google ID token credential for an access token
func (c *Client) GoogleSignIn(ctx context.Context, credential string) (*models.AuthResponse, error) {
	return send[models.AuthResponse](ctx, c, http.MethodPost, "/auth/google", models.GoogleSignInRequest{
		Credential: credential,
	})
}

// Me returns the user the current token belongs to
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	return getObject[models.User](ctx, c, "/auth/me")
}
