package auth

import (
	"context"
	"testing"
	"time"

	"moviecatalog/internal/repository"
	"moviecatalog/pkg/model"

	gen "moviecatalog/gen/mock/auth/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

func testSecret() []byte { return []byte("test-secret") }

func newController(repo userRepository) *Controller {
	return New(repo, testSecret, time.Hour)
}

func TestRegister(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repoMock := gen.NewMockuserRepository(ctrl)
	c := newController(repoMock)
	ctx := context.Background()

	repoMock.EXPECT().GetUser(ctx, "yeezy").Return(nil, repository.ErrNotFound)
	repoMock.EXPECT().AddUser(ctx, gomock.Any()).Return(nil)

	user, err := c.Register(ctx, "Yeezy", "Abcd123")
	require.NoError(t, err)
	assert.Equal(t, "yeezy", user.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("Abcd123")))
}

func TestRegisterExistingName(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repoMock := gen.NewMockuserRepository(ctrl)
	c := newController(repoMock)
	ctx := context.Background()

	repoMock.EXPECT().GetUser(ctx, "nton939").Return(model.NewUser("nton939", "x"), nil)

	_, err := c.Register(ctx, "nton939", "Abcd123")
	assert.ErrorIs(t, err, ErrNameNotUnique)
}

func TestRegisterInvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repoMock := gen.NewMockuserRepository(ctrl)
	c := newController(repoMock)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "short username", username: "ab", password: "Abcd123"},
		{name: "short password", username: "yeezy", password: "Ab1"},
		{name: "no upper case", username: "yeezy", password: "abcd1234"},
		{name: "no lower case", username: "yeezy", password: "ABCD1234"},
		{name: "no digit", username: "yeezy", password: "Abcdefgh"},
		{name: "empty password", username: "yeezy", password: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Register(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repoMock := gen.NewMockuserRepository(ctrl)
	c := newController(repoMock)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("Abcd123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := model.NewUser("new_user", string(hash))
	repoMock.EXPECT().GetUser(ctx, "new_user").Return(user, nil).Times(2)

	token, err := c.Authenticate(ctx, "new_user", "Abcd123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := c.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "new_user", username)

	_, err = c.Authenticate(ctx, "new_user", "123456789")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repoMock := gen.NewMockuserRepository(ctrl)
	c := newController(repoMock)
	ctx := context.Background()

	repoMock.EXPECT().GetUser(ctx, "ghost").Return(nil, repository.ErrNotFound)

	_, err := c.Authenticate(ctx, "ghost", "Abcd123")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestValidateTokenFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	c := newController(gen.NewMockuserRepository(ctrl))
	ctx := context.Background()

	_, err := c.ValidateToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	other := New(gen.NewMockuserRepository(ctrl), func() []byte { return []byte("other-secret") }, time.Hour)
	hash, err2 := bcrypt.GenerateFromPassword([]byte("Abcd123"), bcrypt.MinCost)
	require.NoError(t, err2)
	repoMock := gen.NewMockuserRepository(ctrl)
	signer := New(repoMock, testSecret, time.Hour)
	repoMock.EXPECT().GetUser(ctx, "new_user").Return(model.NewUser("new_user", string(hash)), nil)
	token, err2 := signer.Authenticate(ctx, "new_user", "Abcd123")
	require.NoError(t, err2)

	_, err = other.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
