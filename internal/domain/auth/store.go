package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"planivo/internal/platform/querier"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type credentials struct {
	StaffID        string
	OrganizationID string
	Role           string
	PasswordHash   string
}

// Authenticate checks the email/password pair against the staff table and
// returns a signed token on success.
func (s *Store) Authenticate(ctx context.Context, secret, email, password string, ttl time.Duration) (string, UserContext, error) {
	var creds credentials
	err := s.DB.QueryRow(ctx, `
    SELECT id, organization_id, role, password_hash
    FROM staff
    WHERE email = $1
  `, email).Scan(&creds.StaffID, &creds.OrganizationID, &creds.Role, &creds.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", UserContext{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", UserContext{}, err
	}

	if err := CheckPassword(creds.PasswordHash, password); err != nil {
		return "", UserContext{}, ErrInvalidCredentials
	}

	user := UserContext{StaffID: creds.StaffID, OrganizationID: creds.OrganizationID, Role: creds.Role}
	token, err := GenerateToken(secret, Claims{
		StaffID:        user.StaffID,
		OrganizationID: user.OrganizationID,
		Role:           user.Role,
	}, ttl)
	if err != nil {
		return "", UserContext{}, err
	}
	return token, user, nil
}
