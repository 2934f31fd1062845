// Package identity implements the account lifecycle: email verification,
// registration, login and token resolution. It is the only package with
// business rules; persistence, the TTL store, token signing and event
// publishing are injected behind narrow interfaces.
package identity

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/YildirimDemir/social-platform/internal/crypto"
	"github.com/YildirimDemir/social-platform/internal/model"
	"github.com/YildirimDemir/social-platform/internal/repository"
	"github.com/YildirimDemir/social-platform/internal/token"
	"github.com/YildirimDemir/social-platform/internal/verification"
)

// Verification state machine timing. These are business constants, not
// deployment knobs: a code lives 5 minutes, the verified marker earned by
// submitting it lives 10.
const (
	codeTTL     = 5 * time.Minute
	verifiedTTL = 10 * time.Minute

	verifyKeyPrefix   = "verify:"
	verifiedKeyPrefix = "verified:"
	verifiedMarker    = "1"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{3,30}$`)

// Role names are matched after lower-casing, so the pattern only needs
// the lower range.
var rolePattern = regexp.MustCompile(`^[a-z0-9_\-]{1,50}$`)

// AccountStore is the persistence contract the service consumes. The
// production implementation is repository.AccountRepo.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	GetByUsername(ctx context.Context, username string) (model.Account, error)
	GetByID(ctx context.Context, id uint64) (model.Account, error)
	Create(ctx context.Context, username, email, passwordHash string, roles []model.Role) (model.Account, error)
	Delete(ctx context.Context, id uint64) error
}

// RoleStore resolves role names, creating missing roles lazily.
type RoleStore interface {
	Resolve(ctx context.Context, names []string) ([]model.Role, error)
}

// EventPublisher emits fire-and-forget notification events. Failures are
// logged and never fail the primary operation.
type EventPublisher interface {
	PublishVerification(ctx context.Context, email, code string) error
	PublishWelcome(ctx context.Context, email, username string) error
}

// Service orchestrates the verification and session workflows.
type Service struct {
	Accounts AccountStore
	Roles    RoleStore
	Store    verification.Store
	Tokens   *token.Service
	Hasher   crypto.Hasher
	Events   EventPublisher
}

func NewService(accounts AccountStore, roles RoleStore, store verification.Store, tokens *token.Service, hasher crypto.Hasher, events EventPublisher) *Service {
	return &Service{
		Accounts: accounts,
		Roles:    roles,
		Store:    store,
		Tokens:   tokens,
		Hasher:   hasher,
		Events:   events,
	}
}

// RegisterInput carries the registration form. Roles are optional; the
// default role is assigned when none are named.
type RegisterInput struct {
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	PasswordConfirm string   `json:"passwordConfirm"`
	Roles           []string `json:"roles"`
}

// LoginResult carries the raw token for non-cookie clients alongside the
// expiry the HTTP layer mirrors into the Authentication cookie.
type LoginResult struct {
	Account model.PublicAccount
	Token   token.Token
}

// SendVerificationCode starts the verification flow for an email that does
// not belong to an existing account. Re-issuing overwrites the previous
// verify: entry, so any outstanding code becomes invalid immediately.
func (s *Service) SendVerificationCode(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	if _, err := s.Accounts.GetByEmail(ctx, email); err == nil {
		return ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := s.Store.Set(ctx, verifyKeyPrefix+email, code, codeTTL); err != nil {
		return err
	}

	if err := s.Events.PublishVerification(ctx, email, code); err != nil {
		log.Printf("identity: verification event for %s not published: %v", email, err)
	}
	return nil
}

// VerifyEmailCode promotes a pending code to a verified marker. The code
// is single-use: consumption happens through an atomic get-and-delete, and
// the entry survives a mismatched attempt.
func (s *Service) VerifyEmailCode(ctx context.Context, email, code string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if code == "" {
		return ErrCodeInvalid
	}

	key := verifyKeyPrefix + email
	stored, ok, err := s.Store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrCodeInvalid
	}

	// Consume atomically and recheck: if a newer code was issued between
	// the read and the delete, the consumed value differs and the attempt
	// fails rather than verifying against a superseded code.
	consumed, ok, err := s.Store.GetDel(ctx, key)
	if err != nil {
		return err
	}
	if !ok || consumed != code {
		return ErrCodeInvalid
	}

	return s.Store.Set(ctx, verifiedKeyPrefix+email, verifiedMarker, verifiedTTL)
}

// Register creates the account after the email has been verified. The
// verified marker is consumed exactly once on success.
func (s *Service) Register(ctx context.Context, in RegisterInput) (model.PublicAccount, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return model.PublicAccount{}, err
	}
	username := strings.TrimSpace(in.Username)
	if !usernamePattern.MatchString(username) {
		return model.PublicAccount{}, fmt.Errorf("%w: invalid username", ErrBadRequest)
	}
	if len(in.Password) < 6 {
		return model.PublicAccount{}, fmt.Errorf("%w: password too short", ErrBadRequest)
	}
	for _, role := range in.Roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue // blank entries are dropped during resolution
		}
		if !rolePattern.MatchString(role) {
			return model.PublicAccount{}, fmt.Errorf("%w: invalid role name %q", ErrBadRequest, role)
		}
	}

	_, verified, err := s.Store.Get(ctx, verifiedKeyPrefix+email)
	if err != nil {
		return model.PublicAccount{}, err
	}
	if !verified {
		return model.PublicAccount{}, ErrNotVerified
	}

	if in.Password != in.PasswordConfirm {
		return model.PublicAccount{}, ErrPasswordMismatch
	}

	// Advisory pre-checks, run concurrently. The unique constraints at
	// creation time remain the authoritative collision signal.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := s.Accounts.GetByEmail(gctx, email); err == nil {
			return ErrConflict
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if _, err := s.Accounts.GetByUsername(gctx, username); err == nil {
			return ErrConflict
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.PublicAccount{}, err
	}

	roles, err := s.Roles.Resolve(ctx, in.Roles)
	if err != nil {
		return model.PublicAccount{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return model.PublicAccount{}, err
	}

	account, err := s.Accounts.Create(ctx, username, email, hash, roles)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.PublicAccount{}, ErrConflict
		}
		return model.PublicAccount{}, err
	}

	if err := s.Store.Del(ctx, verifiedKeyPrefix+email); err != nil {
		log.Printf("identity: verified marker for %s not cleared: %v", email, err)
	}
	if err := s.Events.PublishWelcome(ctx, account.Email, account.Username); err != nil {
		log.Printf("identity: welcome event for %s not published: %v", account.Email, err)
	}

	return account.Public(), nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	account, err := s.Accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !s.Hasher.Compare(account.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	tok, err := s.Tokens.Issue(account.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Account: account.Public(), Token: tok}, nil
}

// Authenticate resolves a raw bearer credential to the password-stripped
// account. It is the RPC entry point behind every AuthorizationGate.
func (s *Service) Authenticate(ctx context.Context, raw string) (model.PublicAccount, error) {
	if strings.TrimSpace(raw) == "" {
		return model.PublicAccount{}, ErrUnauthenticated
	}
	id, err := s.Tokens.Verify(raw)
	if err != nil {
		return model.PublicAccount{}, ErrInvalidToken
	}
	account, err := s.Accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.PublicAccount{}, ErrUnauthenticated
		}
		return model.PublicAccount{}, err
	}
	return account.Public(), nil
}

// DeleteAccount removes the account row, then clears any stray
// verification entries for its email. The cleanup is best-effort; both
// entries are TTL-bounded anyway.
func (s *Service) DeleteAccount(ctx context.Context, id uint64, email string) error {
	if id == 0 {
		return ErrBadRequest
	}
	if err := s.Accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		for _, key := range []string{verifyKeyPrefix + email, verifiedKeyPrefix + email} {
			if err := s.Store.Del(ctx, key); err != nil {
				log.Printf("identity: cleanup of %s failed: %v", key, err)
			}
		}
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email required", ErrBadRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email", ErrBadRequest)
	}
	return email, nil
}

// generateCode returns a 6-digit code from crypto/rand, zero-padded so
// every code has uniform length.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
