package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/storyflow/internal/sqlite"
	"github.com/mesh-intelligence/storyflow/pkg/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	backend := sqlite.NewBackend()
	require.NoError(t, backend.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
		Project: "AUTH-TEST",
	}))
	t.Cleanup(func() { _ = backend.Detach() })

	svc, err := NewService(backend.DB())
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresDB(t *testing.T) {
	_, err := NewService(nil)
	assert.ErrorIs(t, err, types.ErrConfigurationMissing)
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.SignUp(ctx, "Ripley", "ripley@weyland.test", "nostromo")
	require.NoError(t, err)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "Ripley", created.User.Name)
	assert.Equal(t, "Team Member", created.User.Role)
	assert.NotEmpty(t, created.User.Avatar)

	signed, err := svc.SignIn(ctx, "ripley@weyland.test", "nostromo")
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, signed.User.ID)
	assert.NotEqual(t, created.Token, signed.Token, "each sign-in gets its own token")
}

func TestSignInEmailIsCaseInsensitive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "Ripley", "Ripley@Weyland.test", "nostromo")
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, "ripley@weyland.test", "nostromo")
	assert.NoError(t, err)
}

func TestSignUpValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"empty name", "", "a@b.test", "pw", ErrNameRequired},
		{"blank name", "   ", "a@b.test", "pw", ErrNameRequired},
		{"empty email", "Ripley", "", "pw", ErrInvalidCredentials},
		{"empty password", "Ripley", "a@b.test", "", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(ctx, tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "Ripley", "ripley@weyland.test", "nostromo")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "Other", "ripley@weyland.test", "different")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "Ripley", "ripley@weyland.test", "nostromo")
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, "ripley@weyland.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "nobody@weyland.test", "nostromo")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCurrentAndSignOut(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, "Ripley", "ripley@weyland.test", "nostromo")
	require.NoError(t, err)

	user, err := svc.Current(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User, user)

	require.NoError(t, svc.SignOut(ctx, sess.Token))

	_, err = svc.Current(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	// Revoking again is fine.
	assert.NoError(t, svc.SignOut(ctx, sess.Token))

	_, err = svc.Current(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestTeamListsUsersInRegistrationOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.SignUp(ctx, "Ripley", "ripley@weyland.test", "pw")
	require.NoError(t, err)
	second, err := svc.SignUp(ctx, "Dallas", "dallas@weyland.test", "pw")
	require.NoError(t, err)

	team, err := svc.Team(ctx)
	require.NoError(t, err)
	require.Len(t, team, 2)
	assert.Equal(t, first.User.ID, team[0].ID)
	assert.Equal(t, second.User.ID, team[1].ID)
}

func TestMemoryGuestSignIn(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sess, err := m.SignInGuest(ctx, "PacDev", "")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "PacDev", sess.User.Name)
	assert.Equal(t, "Player 1", sess.User.Role)
	assert.Contains(t, sess.User.Avatar, "seed=PacDev")

	user, err := m.Current(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User, user)

	_, err = m.SignInGuest(ctx, "", "")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestMemoryGuestAvatarChoice(t *testing.T) {
	m := NewMemory()

	urls := GuestAvatarURLs()
	require.NotEmpty(t, urls)

	sess, err := m.SignInGuest(context.Background(), "PacDev", urls[0])
	require.NoError(t, err)
	assert.Equal(t, urls[0], sess.User.Avatar)
}

func TestMemorySignOutAndTeam(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a, err := m.SignInGuest(ctx, "Zed", "")
	require.NoError(t, err)
	b, err := m.SignInGuest(ctx, "Abe", "")
	require.NoError(t, err)

	require.NoError(t, m.SignOut(ctx, a.Token))
	_, err = m.Current(ctx, a.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	// Signing out does not remove the guest from the roster.
	team, err := m.Team(ctx)
	require.NoError(t, err)
	require.Len(t, team, 2)
	assert.Equal(t, b.User.ID, team[0].ID, "roster sorts by name")
	assert.Equal(t, a.User.ID, team[1].ID)
}
