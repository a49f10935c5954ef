package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"carebase.org/internal/token"
)

// Service issues credentials and resolves identities. It composes the token
// codec with the user store; all operations are request-scoped and share no
// mutable state.
type Service struct {
	users UserStore
	perms PermissionStore
	codec *token.Codec
}

// NewService constructs the auth service.
func NewService(users UserStore, perms PermissionStore, codec *token.Codec) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth: user store is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	return &Service{users: users, perms: perms, codec: codec}, nil
}

// EnsureBuiltins seeds the persisted permission catalog.
func (s *Service) EnsureBuiltins(ctx context.Context) error {
	if s.perms == nil {
		return nil
	}
	return s.perms.Ensure(ctx, BuiltinPermissions)
}

// RefreshTTL reports the refresh token lifetime, used for the cookie Max-Age.
func (s *Service) RefreshTTL() int {
	return int(s.codec.RefreshTTL().Seconds())
}

// RegisterRequest carries a new account's fields.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// AuthResponse is returned from register and login.
type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	Username    string `json:"username"`
	Role        Role   `json:"role"`
}

// Register creates an account and issues an access token. Registration does
// not issue a refresh token; the first login does.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if username == "" || email == "" || req.Password == "" {
		return AuthResponse{}, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		return AuthResponse{}, err
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return AuthResponse{}, err
	}
	if taken {
		return AuthResponse{}, fmt.Errorf("%w: username already exists", ErrDuplicate)
	}
	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return AuthResponse{}, err
	}
	if taken {
		return AuthResponse{}, fmt.Errorf("%w: email already exists", ErrDuplicate)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return AuthResponse{}, err
	}
	user := &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
		Enabled:      true,
	}
	if err := s.users.Save(ctx, user); err != nil {
		return AuthResponse{}, err
	}

	access, err := s.codec.IssueAccess(user.ID.String())
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{AccessToken: access, Username: user.Username, Role: user.Role}, nil
}

// Login authenticates credentials and issues an access token plus a refresh
// token. Unknown user and wrong password collapse to the same error so the
// response never reveals which accounts exist.
func (s *Service) Login(ctx context.Context, username, password string) (AuthResponse, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return AuthResponse{}, "", ErrInvalidCredentials
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return AuthResponse{}, "", ErrInvalidCredentials
	}
	if !user.Enabled {
		return AuthResponse{}, "", ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return AuthResponse{}, "", ErrInvalidCredentials
	}

	access, err := s.codec.IssueAccess(user.ID.String())
	if err != nil {
		return AuthResponse{}, "", err
	}
	refresh, err := s.codec.IssueRefresh(user.ID.String())
	if err != nil {
		return AuthResponse{}, "", err
	}
	return AuthResponse{AccessToken: access, Username: user.Username, Role: user.Role}, refresh, nil
}

// RefreshAccessToken exchanges a valid refresh token for a new access token.
// The refresh token itself stays valid until its own expiry; there is no
// rotation and no server-side tracking.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	subject, err := s.codec.Validate(refreshToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return "", ErrInvalidToken
	}
	user, err := s.users.Find(ctx, userID)
	if err != nil {
		return "", ErrNotFound
	}
	return s.codec.IssueAccess(user.ID.String())
}

// Authenticate resolves a bearer access token into a security context: the
// user is loaded by subject and the role expanded into its authority set.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (SecurityContext, error) {
	subject, err := s.codec.Validate(accessToken)
	if err != nil {
		return SecurityContext{}, ErrInvalidToken
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return SecurityContext{}, ErrInvalidToken
	}
	user, err := s.users.Find(ctx, userID)
	if err != nil {
		return SecurityContext{}, ErrNotFound
	}
	return NewSecurityContext(user), nil
}

// DeleteUser removes the target account. Actors cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, targetID, actorID uuid.UUID) error {
	if targetID == actorID {
		return ErrSelfDeletion
	}
	user, err := s.users.Find(ctx, targetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.users.Delete(ctx, user.ID)
}
