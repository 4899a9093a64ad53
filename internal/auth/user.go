package auth

import "time"

// User represents an account that replserver's login path maps to an
// owner id (SPEC_FULL.md §C); ID is the owner id handed to
// World.Write/Read once a JWT derived from it validates.
type User struct {
	ID           uint64    // Unique immutable identifier; doubles as owner id
	Username     string    // Unique username (case-insensitive)
	PasswordHash string    // bcrypt hashed password (60 chars)
	CreatedAt    time.Time // Account creation timestamp (server time)
	LastLogin    time.Time // Last successful login
	IsAdmin      bool      // Administrative privileges flag
	Role         string    // account role (user, admin, moderator); owner tokens do not carry it
}

// GetRole returns the account's role, defaulting based on IsAdmin.
func (u *User) GetRole() string {
	if u.Role != "" {
		return u.Role
	}
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}
