package parties

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/domain"
	"estateops/internal/domain/ownership"
	"estateops/pkg/logger"
)

// UserRepository is the persistence contract for users.
type UserRepository interface {
	Insert(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByIDs(ctx context.Context, userIDs []id.ID) ([]*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*User], error)
}

// CompanyRepository is the persistence contract for companies.
type CompanyRepository interface {
	Insert(ctx context.Context, c *Company) error
	Update(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, companyID id.ID) (*Company, error)
	List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*Company], error)
}

// Service implements party management. It also serves as the party
// directory the ownership validator resolves display names through.
type Service struct {
	users     UserRepository
	companies CompanyRepository
	log       *logger.Logger
}

// NewService creates the party service.
func NewService(users UserRepository, companies CompanyRepository, log *logger.Logger) *Service {
	return &Service{
		users:     users,
		companies: companies,
		log:       log.WithComponent("parties.service"),
	}
}

// CreateUserInput carries the fields for a new user.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Roles     []string
}

// CreateUser registers a person. The password is optional: buyers created
// by staff have no credentials until they claim the account.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	u := &User{
		Base:      entity.NewBase(),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:     strings.TrimSpace(in.Phone),
		Roles:     in.Roles,
		IsActive:  true,
	}
	if err := u.Validate(ctx); err != nil {
		return nil, err
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperror.NewInternal(err)
		}
		u.PasswordHash = string(hash)
	}

	existing, err := s.users.GetByEmail(ctx, u.Email)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewDuplicate("user", "email", u.Email)
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Infow("user created", "user_id", u.ID)
	return u, nil
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// GetUsers returns users by id; missing ids are simply absent from the
// result.
func (s *Service) GetUsers(ctx context.Context, userIDs []id.ID) ([]*User, error) {
	return s.users.GetByIDs(ctx, userIDs)
}

// ListUsers lists users.
func (s *Service) ListUsers(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*User], error) {
	return s.users.List(ctx, filter)
}

// CreateCompanyInput carries the fields for a new company.
type CreateCompanyInput struct {
	Name               string
	RegistrationNumber string
	Email              string
	Phone              string
}

// CreateCompany registers a corporate party.
func (s *Service) CreateCompany(ctx context.Context, in CreateCompanyInput) (*Company, error) {
	c := &Company{
		Base:               entity.NewBase(),
		Name:               strings.TrimSpace(in.Name),
		RegistrationNumber: strings.TrimSpace(in.RegistrationNumber),
		Email:              strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:              strings.TrimSpace(in.Phone),
	}
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.companies.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Infow("company created", "company_id", c.ID)
	return c, nil
}

// GetCompany returns one company.
func (s *Service) GetCompany(ctx context.Context, companyID id.ID) (*Company, error) {
	return s.companies.GetByID(ctx, companyID)
}

// ListCompanies lists companies.
func (s *Service) ListCompanies(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*Company], error) {
	return s.companies.List(ctx, filter)
}

// OwnerDisplayName resolves the display name of an owning party.
// Implements the ownership package's directory contract.
func (s *Service) OwnerDisplayName(ctx context.Context, owner ownership.OwnerRef) (string, error) {
	switch owner.Type {
	case ownership.OwnerUser:
		u, err := s.users.GetByID(ctx, owner.ID)
		if err != nil {
			return "", err
		}
		return u.FullName(), nil
	case ownership.OwnerCompany:
		c, err := s.companies.GetByID(ctx, owner.ID)
		if err != nil {
			return "", err
		}
		return c.Name, nil
	}
	return "", apperror.NewValidation("owner type must be user or company")
}
