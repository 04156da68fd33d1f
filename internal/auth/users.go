package auth

import (
	"strconv"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

// account couples a user with its credential hash. The hash never leaves
// this package.
type account struct {
	user domain.User
	hash []byte
}

// UserStore is the in-memory account registry backing login/register.
// It is identity-issuance state, not session state, so it lives outside
// the coordinator.
type UserStore struct {
	mu     sync.RWMutex
	byName map[string]*account
	nextID int
}

// seedAccounts mirrors the platform's bootstrap accounts, one per role.
var seedAccounts = []struct {
	username string
	password string
	role     domain.Role
}{
	{"admin", "admin123", domain.RoleAdmin},
	{"host", "host123", domain.RoleHost},
	{"sys", "sys123", domain.RoleSys},
	{"student", "student123", domain.RoleStudent},
	{"observer", "observer123", domain.RoleObserver},
	{"judge", "judge123", domain.RoleJudge},
	{"delegate", "delegate123", domain.RoleDelegate},
}

func NewUserStore() *UserStore {
	s := &UserStore{byName: make(map[string]*account), nextID: 1}
	for _, seed := range seedAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.DefaultCost)
		if err != nil {
			continue
		}
		s.byName[seed.username] = &account{
			user: domain.User{ID: domain.UserID(strconv.Itoa(s.nextID)), Username: seed.username, Role: seed.role},
			hash: hash,
		}
		s.nextID++
	}
	return s
}

// registrableRoles limits self-service registration; judge/delegate/sys
// accounts are provisioned by an admin.
var registrableRoles = map[domain.Role]bool{
	domain.RoleStudent:  true,
	domain.RoleHost:     true,
	domain.RoleAdmin:    true,
	domain.RoleObserver: true,
}

func (s *UserStore) Register(username, password string, role domain.Role) (*domain.User, error) {
	if username == "" || password == "" || role == "" {
		return nil, domain.ValidationError("username, password and role are required")
	}
	if !registrableRoles[role] {
		return nil, domain.ValidationError("invalid role %q", role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[username]; exists {
		return nil, domain.ValidationError("username already taken")
	}
	acc := &account{
		user: domain.User{ID: domain.UserID(strconv.Itoa(s.nextID)), Username: username, Role: role},
		hash: hash,
	}
	s.nextID++
	s.byName[username] = acc
	u := acc.user
	return &u, nil
}

func (s *UserStore) Authenticate(username, password string) (*domain.User, error) {
	s.mu.RLock()
	acc, ok := s.byName[username]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.AuthError("unknown username or wrong password")
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return nil, domain.AuthError("unknown username or wrong password")
	}
	u := acc.user
	return &u, nil
}

// List snapshots every account's public identity, unsorted. Callers
// order the result themselves.
func (s *UserStore) List() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.byName))
	for _, acc := range s.byName {
		out = append(out, acc.user)
	}
	return out
}

func (s *UserStore) FindByID(id domain.UserID) (*domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.byName {
		if acc.user.ID == id {
			u := acc.user
			return &u, true
		}
	}
	return nil, false
}
