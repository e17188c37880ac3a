// Package parties holds the people and companies the engine transacts
// with: buyers, owners, tenants, agents and staff users.
package parties

import (
	"context"
	"strings"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
)

// User is a person: buyer, tenant, agent or staff member. Roles decide
// what the account may call; buyers usually carry no roles at all.
type User struct {
	entity.Base

	FirstName    string   `db:"first_name" json:"firstName"`
	LastName     string   `db:"last_name" json:"lastName"`
	Email        string   `db:"email" json:"email"`
	Phone        string   `db:"phone" json:"phone,omitempty"`
	PasswordHash string   `db:"password_hash" json:"-"`
	Roles        []string `db:"roles" json:"roles,omitempty"`
	IsActive     bool     `db:"is_active" json:"isActive"`
}

// FullName returns the display name used in documents and error messages.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasRole reports whether the user carries the role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Validate implements entity.Validatable.
func (u *User) Validate(ctx context.Context) error {
	if strings.TrimSpace(u.FirstName) == "" {
		return apperror.NewValidation("first name is required").WithDetail("field", "firstName")
	}
	if strings.TrimSpace(u.Email) == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if !strings.Contains(u.Email, "@") {
		return apperror.NewValidation("email is invalid").WithDetail("field", "email")
	}
	return nil
}

// Company is a corporate party that can own properties.
type Company struct {
	entity.Base

	Name               string `db:"name" json:"name"`
	RegistrationNumber string `db:"registration_number" json:"registrationNumber,omitempty"`
	Email              string `db:"email" json:"email,omitempty"`
	Phone              string `db:"phone" json:"phone,omitempty"`
}

// Validate implements entity.Validatable.
func (c *Company) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("company name is required").WithDetail("field", "name")
	}
	return nil
}
