package account

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haiku-api/internal/domain"
	"haiku-api/internal/repo"
	"haiku-api/internal/testutil"
	"haiku-api/pkg/utils"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := testutil.DB(t, &Account{})
	return NewStore(db, repo.WithClock(testutil.Clock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))))
}

func ptr[T any](v T) *T { return &v }

func validInput() CreateInput {
	return CreateInput{FirstName: "Matsuo", LastName: "Basho", Email: " Basho@Example.com ", Password: "furuike-ya"}
}

func TestCreateHashesPassword(t *testing.T) {
	s := newTestStore(t)
	a, err := s.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "basho@example.com", a.Email)
	assert.NotEqual(t, "furuike-ya", a.Password)
	assert.True(t, utils.CheckPassword("furuike-ya", a.Password))

	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "password")
	assert.NotContains(t, string(b), a.Password)
	assert.Contains(t, string(b), `"firstName":"Matsuo"`)
}

func TestCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, err := s.Create(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Email = "BASHO@example.com"
	_, err = s.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// still taken while the first account sits in the trash
	_, err = s.SoftDelete(ctx, a.ID)
	require.NoError(t, err)
	_, err = s.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, s.Destroy(ctx, a.ID))
	_, err = s.Create(ctx, in)
	assert.NoError(t, err)
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, err := s.Create(ctx, validInput())
	require.NoError(t, err)

	u, err := s.Update(ctx, a.ID, UpdateInput{Password: ptr("kawazu-tobikomu")})
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword("kawazu-tobikomu", u.Password))
	assert.Equal(t, "Matsuo", u.FirstName)
	assert.Equal(t, "basho@example.com", u.Email)

	u, err = s.Update(ctx, a.ID, UpdateInput{FirstName: ptr("Kinsaku")})
	require.NoError(t, err)
	assert.Equal(t, "Kinsaku", u.FirstName)
	assert.True(t, utils.CheckPassword("kawazu-tobikomu", u.Password))
}

func TestUpdateEmailConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.Create(ctx, validInput())
	require.NoError(t, err)
	in := validInput()
	in.Email = "issa@example.com"
	other, err := s.Create(ctx, in)
	require.NoError(t, err)

	_, err = s.Update(ctx, other.ID, UpdateInput{Email: ptr("basho@example.com")})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := s.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "issa@example.com", got.Email)
}

func TestCreateRejectsBlankNames(t *testing.T) {
	in := validInput()
	in.LastName = " "
	_, err := newTestStore(t).Create(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
