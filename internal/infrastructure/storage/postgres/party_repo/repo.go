// Package party_repo persists users and companies.
package party_repo

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain/parties"
	"estateops/internal/infrastructure/storage/postgres"
)

const (
	usersTable     = "users"
	companiesTable = "companies"
)

// UserRepo implements parties.UserRepository.
type UserRepo struct {
	*postgres.BaseRepo[*parties.User]
}

// NewUserRepo creates the user repository.
func NewUserRepo(tm *postgres.TxManager) *UserRepo {
	return &UserRepo{
		BaseRepo: postgres.NewBaseRepo[*parties.User](
			tm, usersTable, []string{"first_name", "last_name", "email"},
			func() *parties.User { return &parties.User{} },
		),
	}
}

func (r *UserRepo) GetByIDs(ctx context.Context, userIDs []id.ID) ([]*parties.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var users []*parties.User
	q := r.BaseSelect().
		Where(squirrel.Eq{"id": userIDs}).
		Where(squirrel.Eq{"is_deleted": false})
	if err := r.FindMany(ctx, q, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByEmail looks a user up by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*parties.User, error) {
	u := &parties.User{}
	q := r.BaseSelect().
		Where(squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))}).
		Where(squirrel.Eq{"is_deleted": false}).
		Limit(1)
	if err := r.FindOne(ctx, q, u); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("user", email)
		}
		return nil, err
	}
	return u, nil
}

// CompanyRepo implements parties.CompanyRepository.
type CompanyRepo struct {
	*postgres.BaseRepo[*parties.Company]
}

// NewCompanyRepo creates the company repository.
func NewCompanyRepo(tm *postgres.TxManager) *CompanyRepo {
	return &CompanyRepo{
		BaseRepo: postgres.NewBaseRepo[*parties.Company](
			tm, companiesTable, []string{"name", "registration_number"},
			func() *parties.Company { return &parties.Company{} },
		),
	}
}

var (
	_ parties.UserRepository    = (*UserRepo)(nil)
	_ parties.CompanyRepository = (*CompanyRepo)(nil)
)
