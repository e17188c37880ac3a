package parties

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain"
	"estateops/internal/domain/ownership"
	"estateops/pkg/logger"
)

type fakeUserRepo struct {
	users map[id.ID]*User
}

func (r *fakeUserRepo) Insert(ctx context.Context, u *User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, u *User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, userIDs []id.ID) ([]*User, error) {
	var out []*User
	for _, uid := range userIDs {
		if u, ok := r.users[uid]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *fakeUserRepo) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*User], error) {
	out := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return &domain.ListResult[*User]{Items: out, TotalCount: int64(len(out))}, nil
}

type fakeCompanyRepo struct {
	companies map[id.ID]*Company
}

func (r *fakeCompanyRepo) Insert(ctx context.Context, c *Company) error {
	r.companies[c.ID] = c
	return nil
}

func (r *fakeCompanyRepo) Update(ctx context.Context, c *Company) error {
	r.companies[c.ID] = c
	return nil
}

func (r *fakeCompanyRepo) GetByID(ctx context.Context, companyID id.ID) (*Company, error) {
	c, ok := r.companies[companyID]
	if !ok {
		return nil, apperror.NewNotFound("company", companyID)
	}
	return c, nil
}

func (r *fakeCompanyRepo) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*Company], error) {
	out := make([]*Company, 0, len(r.companies))
	for _, c := range r.companies {
		out = append(out, c)
	}
	return &domain.ListResult[*Company]{Items: out, TotalCount: int64(len(out))}, nil
}

func newPartyService(t *testing.T) *Service {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Development: true})
	require.NoError(t, err)
	return NewService(
		&fakeUserRepo{users: make(map[id.ID]*User)},
		&fakeCompanyRepo{companies: make(map[id.ID]*Company)},
		log,
	)
}

func TestCreateUser(t *testing.T) {
	svc := newPartyService(t)

	u, err := svc.CreateUser(context.Background(), CreateUserInput{
		FirstName: "  Jane ",
		LastName:  "Mwangi",
		Email:     "Jane@Example.com ",
		Password:  "correct horse",
		Roles:     []string{"agent"},
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, "Jane Mwangi", u.FullName())
	assert.True(t, u.IsActive)
	assert.True(t, u.HasRole("agent"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")))
}

func TestCreateUserWithoutPassword(t *testing.T) {
	svc := newPartyService(t)

	u, err := svc.CreateUser(context.Background(), CreateUserInput{
		FirstName: "Otieno",
		LastName:  "Odhiambo",
		Email:     "otieno@example.com",
	})
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash, "staff-created buyers have no credentials yet")
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := newPartyService(t)

	in := CreateUserInput{FirstName: "Jane", LastName: "Mwangi", Email: "jane@example.com"}
	_, err := svc.CreateUser(context.Background(), in)
	require.NoError(t, err)

	// Case differences collapse onto the same address.
	in.Email = "JANE@example.com"
	_, err = svc.CreateUser(context.Background(), in)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestCreateUserValidation(t *testing.T) {
	svc := newPartyService(t)

	_, err := svc.CreateUser(context.Background(), CreateUserInput{FirstName: "Jane", Email: "not-an-email"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateCompany(t *testing.T) {
	svc := newPartyService(t)

	c, err := svc.CreateCompany(context.Background(), CreateCompanyInput{
		Name:               "Acme Holdings Ltd",
		RegistrationNumber: "PVT-123",
		Email:              "INFO@acme.co.ke",
	})
	require.NoError(t, err)
	assert.Equal(t, "info@acme.co.ke", c.Email)

	_, err = svc.CreateCompany(context.Background(), CreateCompanyInput{Name: "  "})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestOwnerDisplayName(t *testing.T) {
	svc := newPartyService(t)

	u, err := svc.CreateUser(context.Background(), CreateUserInput{
		FirstName: "Jane", LastName: "Mwangi", Email: "jane@example.com",
	})
	require.NoError(t, err)
	c, err := svc.CreateCompany(context.Background(), CreateCompanyInput{Name: "Acme Holdings Ltd"})
	require.NoError(t, err)

	name, err := svc.OwnerDisplayName(context.Background(), ownership.OwnerRef{Type: ownership.OwnerUser, ID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, "Jane Mwangi", name)

	name, err = svc.OwnerDisplayName(context.Background(), ownership.OwnerRef{Type: ownership.OwnerCompany, ID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings Ltd", name)

	_, err = svc.OwnerDisplayName(context.Background(), ownership.OwnerRef{Type: "robot", ID: u.ID})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
