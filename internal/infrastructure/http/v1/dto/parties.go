package dto

import (
	"estateops/internal/core/id"
	"estateops/internal/domain/parties"
)

// CreateUserRequest registers a person.
type CreateUserRequest struct {
	FirstName string   `json:"firstName" binding:"required"`
	LastName  string   `json:"lastName" binding:"required"`
	Email     string   `json:"email" binding:"required,email"`
	Phone     string   `json:"phone"`
	Password  string   `json:"password"`
	Roles     []string `json:"roles"`
}

// ToInput maps the request.
func (r CreateUserRequest) ToInput() parties.CreateUserInput {
	return parties.CreateUserInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Password:  r.Password,
		Roles:     r.Roles,
	}
}

// CreateCompanyRequest registers a corporate party.
type CreateCompanyRequest struct {
	Name               string `json:"name" binding:"required"`
	RegistrationNumber string `json:"registrationNumber"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
}

// ToInput maps the request.
func (r CreateCompanyRequest) ToInput() parties.CreateCompanyInput {
	return parties.CreateCompanyInput{
		Name:               r.Name,
		RegistrationNumber: r.RegistrationNumber,
		Email:              r.Email,
		Phone:              r.Phone,
	}
}

// UserResponse is one person.
type UserResponse struct {
	ID        id.ID    `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	FullName  string   `json:"fullName"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	IsActive  bool     `json:"isActive"`
}

// FromUser maps one person.
func FromUser(u *parties.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Email:     u.Email,
		Phone:     u.Phone,
		Roles:     u.Roles,
		IsActive:  u.IsActive,
	}
}

// FromUsers maps a person slice, never returning nil.
func FromUsers(us []*parties.User) []UserResponse {
	out := make([]UserResponse, 0, len(us))
	for _, u := range us {
		out = append(out, FromUser(u))
	}
	return out
}

// CompanyResponse is one corporate party.
type CompanyResponse struct {
	ID                 id.ID  `json:"id"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registrationNumber,omitempty"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
}

// FromCompany maps one corporate party.
func FromCompany(c *parties.Company) CompanyResponse {
	return CompanyResponse{
		ID:                 c.ID,
		Name:               c.Name,
		RegistrationNumber: c.RegistrationNumber,
		Email:              c.Email,
		Phone:              c.Phone,
	}
}

// FromCompanies maps a company slice, never returning nil.
func FromCompanies(cs []*parties.Company) []CompanyResponse {
	out := make([]CompanyResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, FromCompany(c))
	}
	return out
}

// LoginRequest authenticates a staff user.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest redeems a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}
