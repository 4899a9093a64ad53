package auth

import (
	"log"
	"strings"
	"sync"
	"time"
)

// MemoryUserRepo is a threadsafe in-memory UserRepository, useful for
// tests and a replserver instance with no durable account store. IDs
// are assigned incrementally starting from 1 and double as owner ids.
type MemoryUserRepo struct {
	mu     sync.RWMutex
	users  map[string]*User // key = lowercase(username)
	nextID uint64
}

// NewMemoryUserRepo returns a repository pre-populated with a default
// admin account.
func NewMemoryUserRepo() (*MemoryUserRepo, error) {
	repo := &MemoryUserRepo{
		users:  make(map[string]*User),
		nextID: 1,
	}

	// Create first admin user if no users exist (for initial setup)
	// This should be replaced with proper admin creation in production
	adminHash, err := HashPassword("ChangeMe123!")
	if err != nil {
		return nil, err
	}
	_, err = repo.CreateUser("admin", adminHash, true)
	if err != nil {
		return nil, err
	}

	log.Printf("SECURITY WARNING: Default admin user created with password 'ChangeMe123!' - CHANGE IMMEDIATELY!")

	return repo, nil
}

// GetUserByUsername retrieves user by case-insensitive username.
func (r *MemoryUserRepo) GetUserByUsername(username string) (*User, error) {
	key := normalize(username)
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[key]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CreateUser inserts a new user if username not present.
func (r *MemoryUserRepo) CreateUser(username string, passwordHash string, isAdmin bool) (*User, error) {
	key := normalize(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[key]; exists {
		return nil, ErrUserExists
	}

	user := &User{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		LastLogin:    time.Now(),
		IsAdmin:      isAdmin,
		Role:         "", // resolved on demand by GetRole()
	}
	r.nextID++
	r.users[key] = user
	return user, nil
}

// GetUserByID retrieves a user by ID (their owner id). Linear scan, fine
// for an in-memory repo's expected scale.
func (r *MemoryUserRepo) GetUserByID(id uint64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}

	return nil, ErrUserNotFound
}

// ValidateCredentials checks a username/password pair and, on success,
// bumps LastLogin.
func (r *MemoryUserRepo) ValidateCredentials(username, password string) (*User, error) {
	user, err := r.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrUserNotFound // same error as "not found" to avoid leaking account existence
	}

	r.mu.Lock()
	user.LastLogin = time.Now()
	r.mu.Unlock()

	return user, nil
}

// Helper to normalise usernames.
func normalize(username string) string {
	return strings.ToLower(username)
}

var _ UserRepository = (*MemoryUserRepo)(nil)
