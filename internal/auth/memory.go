package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// Guest identity attributes. Guests pick a name and an avatar; everything
// else is fabricated on the spot.
const (
	guestColor = "#facc15"
	guestRole  = "Player 1"
)

// guestAvatars are the selectable avatar seeds for guest sign-in.
var guestAvatars = []string{"Blinky", "Pinky", "Inky", "Clyde", "Pac"}

// GuestAvatarURLs returns the avatar choices offered on the guest login
// surface.
func GuestAvatarURLs() []string {
	urls := make([]string, len(guestAvatars))
	for i, seed := range guestAvatars {
		urls[i] = avatarBaseURL + seed
	}
	return urls
}

// Memory is the Authenticator for deployments without a database. Any
// name signs in as a guest; the password is ignored and nothing survives
// a restart. Sessions and the roster live in process memory.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]types.User
	roster   map[string]types.User
}

// NewMemory creates an in-memory guest Authenticator.
func NewMemory() *Memory {
	return &Memory{
		sessions: map[string]types.User{},
		roster:   map[string]types.User{},
	}
}

// SignUp fabricates a guest identity from the name. Email and password
// are accepted and discarded.
func (m *Memory) SignUp(_ context.Context, name, _, _ string) (Session, error) {
	return m.signInGuest(name, "")
}

// SignIn treats the email field as the display name, matching the guest
// login surface where there is only a name box.
func (m *Memory) SignIn(_ context.Context, email, _ string) (Session, error) {
	return m.signInGuest(email, "")
}

// SignInGuest opens a guest session with an explicit avatar choice. An
// empty avatar gets the name-seeded default.
func (m *Memory) SignInGuest(_ context.Context, name, avatar string) (Session, error) {
	return m.signInGuest(name, avatar)
}

func (m *Memory) signInGuest(name, avatar string) (Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, ErrNameRequired
	}
	if avatar == "" {
		avatar = avatarBaseURL + name
	}

	user := types.User{
		ID:     types.NewID(),
		Name:   name,
		Avatar: avatar,
		Color:  guestColor,
		Role:   guestRole,
	}
	token, err := randomHex(32)
	if err != nil {
		return Session{}, fmt.Errorf("generate token: %w", err)
	}

	m.mu.Lock()
	m.sessions[token] = user
	m.roster[user.ID] = user
	m.mu.Unlock()

	return Session{Token: token, User: user}, nil
}

// SignOut drops the session. Unknown tokens succeed.
func (m *Memory) SignOut(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// Current resolves a session token to its guest identity.
func (m *Memory) Current(_ context.Context, token string) (types.User, error) {
	m.mu.RLock()
	user, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return types.User{}, ErrNoSession
	}
	return user, nil
}

// Team returns every guest that has signed in this process, in name
// order so the roster is stable across calls.
func (m *Memory) Team(_ context.Context) ([]types.User, error) {
	m.mu.RLock()
	users := make([]types.User, 0, len(m.roster))
	for _, u := range m.roster {
		users = append(users, u)
	}
	m.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}
