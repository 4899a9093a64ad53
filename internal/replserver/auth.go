package replserver

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/annel0/replicad/internal/replication"
)

// ownerClaims is the token payload a client presents to identify which
// owner id it is authorized to drive Query/Write/Read for. Ownership
// identity lives entirely at this host layer; internal/replication
// only ever sees the resulting int64 (SPEC_FULL.md §C, Non-goals).
type ownerClaims struct {
	OwnerID int64 `json:"owner_id"`
	jwt.RegisteredClaims
}

// AuthenticateOwner validates tokenString against h's secret and
// returns the owner id it authorizes.
func (h *Host) AuthenticateOwner(tokenString string) (int64, error) {
	claims := &ownerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return replication.InvalidOwner, errors.New("invalid or expired owner token")
	}
	return claims.OwnerID, nil
}

// IssueOwnerToken mints a token authorizing ownerID, used by LoginOwner
// and by test harnesses; a real deployment's login service
// would own this instead.
func (h *Host) IssueOwnerToken(ownerID int64) (string, error) {
	claims := &ownerClaims{
		OwnerID: ownerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "replserver",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// LoginOwner validates username/password against h.Users and, on
// success, issues an owner token scoped to that account's user id.
// Returns an error if no UserRepository was wired via
// SetUserRepository — a Host that only deals in pre-issued owner
// tokens has no use for this path.
func (h *Host) LoginOwner(username, password string) (string, error) {
	if h.Users == nil {
		return "", errors.New("replserver: no UserRepository configured, call SetUserRepository first")
	}
	user, err := h.Users.ValidateCredentials(username, password)
	if err != nil {
		return "", err
	}
	return h.IssueOwnerToken(int64(user.ID))
}
