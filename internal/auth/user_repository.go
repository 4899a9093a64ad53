package auth

import "errors"

// UserRepository defines operations for account persistence and retrieval
// backing replserver's owner-identity login path (SPEC_FULL.md §C). An
// account's ID is the owner id replserver.IssueOwnerToken mints a JWT
// for; this interface lets that lookup swap between the in-memory,
// MariaDB and MongoDB implementations without touching replserver.
type UserRepository interface {
	// GetUserByUsername returns an account by username (case-insensitive).
	// If not found, returns (nil, ErrUserNotFound).
	GetUserByUsername(username string) (*User, error)

	// CreateUser creates a new account with the supplied data and returns
	// the stored instance. Caller is expected to pass a bcrypt-hashed
	// password. Implementations must enforce unique usernames and return
	// ErrUserExists on conflict.
	CreateUser(username string, passwordHash string, isAdmin bool) (*User, error)

	// GetUserByID returns an account by ID. If not found, returns
	// (nil, ErrUserNotFound).
	GetUserByID(id uint64) (*User, error)

	// ValidateCredentials validates a username/password pair and returns
	// the matching account if valid.
	ValidateCredentials(username, password string) (*User, error)
}

// Domain-level errors returned by the repository.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)
