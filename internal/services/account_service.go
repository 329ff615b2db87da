package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"

	"luxe/internal/apperr"
	"luxe/internal/models"
	"luxe/internal/repositories"
	"luxe/internal/validation"
)

// NotificationSender delivers account notifications. Delivery is
// fire-and-forget from the account lifecycle's point of view.
type NotificationSender interface {
	SendVerification(email, token string) error
}

// AccountService handles registration, email verification and login.
type AccountService struct {
	userRepo repositories.UserRepository
	tokens   *TokenService
	hasher   PasswordHasher
	notifier NotificationSender
}

// NewAccountService creates a new AccountService.
func NewAccountService(userRepo repositories.UserRepository, tokens *TokenService, hasher PasswordHasher, notifier NotificationSender) *AccountService {
	return &AccountService{
		userRepo: userRepo,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
	}
}

// Register creates a new unverified user and dispatches a verification
// email. A duplicate email short-circuits before anything is written. The
// raw password is hashed exactly once, here; no other write path touches it.
// Notification dispatch failure is logged but does not fail registration;
// the token can be re-sent on demand.
func (s *AccountService) Register(cmd *validation.RegisterCommand) (*models.User, error) {
	existing, err := s.userRepo.GetByEmail(cmd.Email)
	if existing != nil {
		return nil, apperr.BadRequest("User already exists")
	}
	if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, apperr.Internal("failed to check existing user", err)
	}

	hashed, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	verificationToken, err := newVerificationToken()
	if err != nil {
		return nil, apperr.Internal("failed to generate verification token", err)
	}

	user := &models.User{
		Name:              cmd.Name,
		Email:             cmd.Email,
		Password:          hashed,
		Role:              models.RoleUser,
		IsVerified:        false,
		VerificationToken: verificationToken,
	}
	if err := s.userRepo.Create(user); err != nil {
		// A concurrent registration can slip past the pre-check and hit
		// the unique email index; the repository reports that as the same
		// duplicate error the pre-check produces.
		return nil, asAppError(err, "failed to create user")
	}

	if s.notifier != nil {
		if err := s.notifier.SendVerification(user.Email, verificationToken); err != nil {
			log.Printf("Warning: failed to send verification email to %s: %v", user.Email, err)
		}
	}
	return user, nil
}

// ResendVerification re-dispatches the verification email for an existing
// unverified account, covering the case where the original notification was
// never delivered.
func (s *AccountService) ResendVerification(email string) error {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return asAppError(err, "could not retrieve user")
	}
	if user.IsVerified {
		return apperr.BadRequest("Email is already verified")
	}
	if s.notifier == nil {
		return apperr.Internal("notification sender is not configured", nil)
	}
	if err := s.notifier.SendVerification(user.Email, user.VerificationToken); err != nil {
		return apperr.Internal("failed to send verification email", err)
	}
	return nil
}

// VerifyEmail redeems a single-use verification token: the owning user is
// marked verified, the token is cleared so it cannot be replayed, and a
// fresh session token is returned.
func (s *AccountService) VerifyEmail(token string) (string, *models.User, error) {
	if token == "" {
		return "", nil, apperr.BadRequest("Invalid or expired token")
	}
	user, err := s.userRepo.GetByVerificationToken(token)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return "", nil, apperr.BadRequest("Invalid or expired token")
		}
		return "", nil, apperr.Internal("failed to look up verification token", err)
	}

	user.IsVerified = true
	user.VerificationToken = ""

	sessionToken, err := s.tokens.Issue(Claims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return "", nil, apperr.Internal("failed to issue session token", err)
	}
	if err := s.userRepo.Update(user); err != nil {
		return "", nil, apperr.Internal("failed to save verified user", err)
	}
	return sessionToken, user, nil
}

// Login authenticates a user by email and password and returns a session
// token. An unverified account is rejected before the password is compared,
// so the response never reveals whether an unverified account's password was
// correct.
func (s *AccountService) Login(cmd *validation.LoginCommand) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(cmd.Email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return "", nil, apperr.NotFound("User not found")
		}
		return "", nil, apperr.Internal("failed to look up user", err)
	}

	if !user.IsVerified {
		return "", nil, apperr.BadRequest("Please verify your email before logging in")
	}

	if err := s.hasher.Compare(user.Password, cmd.Password); err != nil {
		return "", nil, apperr.Unauthorized("Invalid credentials")
	}

	token, err := s.tokens.Issue(Claims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return "", nil, apperr.Internal("failed to issue session token", err)
	}
	return token, user, nil
}

// Profile returns the account of the authenticated caller.
func (s *AccountService) Profile(userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, asAppError(err, "could not retrieve profile")
	}
	return user, nil
}

// newVerificationToken returns 20 random bytes, hex encoded.
func newVerificationToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
