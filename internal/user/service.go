package user

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hollowtree/userhub/internal/reqerror"
	"github.com/hollowtree/userhub/internal/token"
	"github.com/hollowtree/userhub/internal/user/entity"
	userrepo "github.com/hollowtree/userhub/internal/user/repo"
)

// emailPattern accepts local-part@domain-with-dot; intentionally loose.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLen = 6

// PasswordHasher turns a raw password into its stored form before it is
// handed to the store's procedures.
type PasswordHasher interface {
	Hash(pw string) (string, error)
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Service orchestrates account flows: validation up front, then delegation
// to the store gateway, with token issuance on login.
type Service struct {
	repo   *userrepo.UserRepo
	tokens *token.Service
	hasher PasswordHasher
}

func NewService(repo *userrepo.UserRepo, tokens *token.Service, hasher PasswordHasher) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &Service{repo: repo, tokens: tokens, hasher: hasher}
}

// Signup validates the request, reports which field conflicts with an
// existing account, and creates the user.
func (s *Service) Signup(ctx context.Context, username *string, email, password string) error {
	if email == "" || password == "" {
		return reqerror.BadRequest("email and password are required")
	}
	if !emailPattern.MatchString(email) {
		return reqerror.BadRequest("invalid email format")
	}
	if len(password) < minPasswordLen {
		return reqerror.BadRequest("password must be at least 6 characters long")
	}

	existing, err := s.repo.FindUser(ctx, username, &email)
	if err != nil {
		return err
	}
	if existing != nil {
		if strings.EqualFold(existing[0].Email, email) {
			return reqerror.Conflict("email already exists")
		}
		return reqerror.Conflict("username already exists")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	return s.repo.AddUser(ctx, email, username, hash)
}

// Login issues a fresh token, then lets the store verify credentials and
// record the token digest in one atomic call.
func (s *Service) Login(ctx context.Context, identifier, password string) (jwtToken string, userID int64, err error) {
	if identifier == "" || password == "" {
		return "", 0, reqerror.BadRequest("username/email and password are required")
	}
	jwtToken, err = s.tokens.Issue(identifier)
	if err != nil {
		return "", 0, err
	}
	userID, err = s.repo.Login(ctx, identifier, password, s.tokens.Digest(jwtToken))
	if err != nil {
		return "", 0, err
	}
	return jwtToken, userID, nil
}

// Edit applies the requested field changes. The store re-checks the token
// digest as part of the procedure, so a stolen-but-revoked token fails here
// even after the middleware let it through.
func (s *Service) Edit(ctx context.Context, rawToken string, newUsername, newPassword, newEmail *string) error {
	if newUsername == nil && newPassword == nil && newEmail == nil {
		return reqerror.BadRequest("at least one field of username, password or email must be provided for update")
	}
	var newHash *string
	if newPassword != nil {
		h, err := s.hasher.Hash(*newPassword)
		if err != nil {
			return err
		}
		newHash = &h
	}
	return s.repo.EditUser(ctx, s.tokens.Digest(rawToken), newUsername, newHash, newEmail)
}

// Profile resolves the identifier attached by the auth middleware to the
// account's public fields.
func (s *Service) Profile(ctx context.Context, identifier string) (*entity.Profile, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, reqerror.BadRequest("invalid user")
	}
	id := strings.ToLower(identifier)
	users, err := s.repo.FindUser(ctx, &id, &id)
	if err != nil {
		return nil, err
	}
	if users == nil {
		return nil, reqerror.NotFound("user not found")
	}
	return &entity.Profile{ID: users[0].ID, Username: users[0].Username, Email: users[0].Email}, nil
}

// List returns every account's public fields; zero users is an empty slice.
func (s *Service) List(ctx context.Context) ([]entity.User, error) {
	return s.repo.ListUsers(ctx)
}
