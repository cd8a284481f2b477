package client

import (
	"context"
	"net/http"

	"github.com/sallamaty/rounds-console/pkg/models"
)

// Departments

// ListDepartments retrieves all departments
func (c *Client) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return GetList[models.Department](ctx, c, "/departments")
}

// CreateDepartment adds a department
func (c *Client) CreateDepartment(ctx context.Context, d models.Department) (*models.Department, error) {
	return send[models.Department](ctx, c, http.MethodPost, "/departments", d)
}

// UpdateDepartment replaces a department
func (c *Client) UpdateDepartment(ctx context.Context, id int64, d models.Department) (*models.Department, error) {
	return send[models.Department](ctx, c, http.MethodPut, itemPath("/departments", id), d)
}

// DeleteDepartment removes a department
func (c *Client) DeleteDepartment(ctx context.Context, id int64) error {
	return remove(ctx, c, itemPath("/departments", id))
}

// Users

// ListUsers retrieves all users. This endpoint is known to nest its payload
// twice; the list decoder handles it.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	return GetList[models.User](ctx, c, "/users")
}

// CreateUser adds a user
func (c *Client) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	return send[models.User](ctx, c, http.MethodPost, "/users", in)
}

// UpdateUser replaces a user
func (c *Client) UpdateUser(ctx context.Context, id int64, in models.UserInput) (*models.User, error) {
	return send[models.User](ctx, c, http.MethodPut, itemPath("/users", id), in)
}

// DeleteUser removes a user
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return remove(ctx, c, itemPath("/users", id))
}

// ListAssessors retrieves the users that can be assigned to rounds
func (c *Client) ListAssessors(ctx context.Context) ([]models.Assessor, error) {
	return GetList[models.Assessor](ctx, c, "/assessors")
}

// Round types

// ListRoundTypes retrieves all round types
func (c *Client) ListRoundTypes(ctx context.Context) ([]models.RoundType, error) {
	return GetList[models.RoundType](ctx, c, "/round-types")
}

// CreateRoundType adds a round type
func (c *Client) CreateRoundType(ctx context.Context, rt models.RoundType) (*models.RoundType, error) {
	return send[models.RoundType](ctx, c, http.MethodPost, "/round-types", rt)
}

// UpdateRoundType replaces a round type
func (c *Client) UpdateRoundType(ctx context.Context, id int64, rt models.RoundType) (*models.RoundType, error) {
	return send[models.RoundType](ctx, c, http.MethodPut, itemPath("/round-types", id), rt)
}

// DeleteRoundType removes a round type
func (c *Client) DeleteRoundType(ctx context.Context, id int64) error {
	return remove(ctx, c, itemPath("/round-types", id))
}
