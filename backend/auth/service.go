package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"intelligencedev/backend/models"

	"gorm.io/gorm"
)

// codeTTL is how long a verification code stays valid after issuance.
const codeTTL = 30 * time.Minute

// User-facing messages. Credential and code mismatches stay deliberately
// generic so responses cannot be used to enumerate accounts.
const (
	MsgUsernameTooShort   = "Username must be at least 3 characters long."
	MsgInvalidEmail       = "Please enter a valid email address."
	MsgPasswordTooShort   = "Password must be at least 8 characters long."
	MsgUsernameTaken      = "This username is already taken."
	MsgEmailTaken         = "This email address is already in use."
	MsgMissingCredentials = "Please enter your username or email and your password."
	MsgInvalidCredentials = "Invalid credentials. Please try again."
	MsgEmailNotVerified   = "Your email address has not been verified yet. Enter the code you received on the verification page."
	MsgMissingCode        = "Please enter the verification code."
	MsgUnknownAccount     = "No account matches this email address."
	MsgAlreadyVerified    = "This email address is already verified. Please log in."
	MsgNoActiveCode       = "This account has no active verification code. Request a new one below."
	MsgCodeExpired        = "The verification code has expired. Request a new one below."
	MsgCodeIncorrect      = "The verification code is incorrect."
	MsgInternal           = "Something went wrong. Please try again later."
)

// errConflict aborts the registration transaction once per-field conflict
// messages have been collected.
var errConflict = errors.New("auth: username or email conflict")

// Service implements registration, login and email verification on top of
// the users table. It holds no session state; callers mutate the session
// after a successful result.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type RegisterResult struct {
	Success  bool
	Errors   []string
	UserID   uint
	Username string
	Email    string

	// VerificationCode is the plaintext one-time code. It is returned to
	// the caller for delivery only and is never persisted in clear.
	VerificationCode string
}

type AuthResult struct {
	Success bool
	Errors  []string
	UserID  uint
}

type VerifyResult struct {
	Success bool
	Errors  []string
}

// Register validates the input, then checks uniqueness and inserts the new
// account inside a single transaction so two concurrent registrations for
// the same username or email cannot both succeed.
func (s *Service) Register(ctx context.Context, username, email, password string) RegisterResult {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	res := RegisterResult{Username: username, Email: email}

	if utf8.RuneCountInString(username) < 3 {
		res.Errors = append(res.Errors, MsgUsernameTooShort)
	}
	if addr, err := mail.ParseAddress(email); email == "" || err != nil {
		res.Errors = append(res.Errors, MsgInvalidEmail)
	} else {
		// ParseAddress accepts the full "Name <addr>" form; only the bare
		// address may reach the email column and the mail transport.
		email = addr.Address
		res.Email = email
	}
	if utf8.RuneCountInString(password) < 8 {
		res.Errors = append(res.Errors, MsgPasswordTooShort)
	}
	if len(res.Errors) > 0 {
		return res
	}

	hash, err := HashPassword(password)
	if err != nil {
		slog.Error("password hashing failed", "source", "auth", "error", err.Error())
		res.Errors = append(res.Errors, MsgInternal)
		return res
	}
	code, err := GenerateVerificationCode()
	if err != nil {
		slog.Error("verification code generation failed", "source", "auth", "error", err.Error())
		res.Errors = append(res.Errors, MsgInternal)
		return res
	}
	codeHash, err := HashVerificationCode(code)
	if err != nil {
		slog.Error("verification code hashing failed", "source", "auth", "error", err.Error())
		res.Errors = append(res.Errors, MsgInternal)
		return res
	}
	expiresAt := time.Now().Add(codeTTL)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.User
		if err := tx.
			Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", username, email).
			Find(&existing).Error; err != nil {
			return err
		}
		for _, u := range existing {
			if strings.EqualFold(u.Username, username) {
				res.Errors = append(res.Errors, MsgUsernameTaken)
			}
			if strings.EqualFold(u.Email, email) {
				res.Errors = append(res.Errors, MsgEmailTaken)
			}
		}
		if len(res.Errors) > 0 {
			return errConflict
		}

		user := models.User{
			Username:                  username,
			Email:                     email,
			PasswordHash:              hash,
			EmailVerificationCode:     &codeHash,
			VerificationCodeExpiresAt: &expiresAt,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		res.UserID = user.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, errConflict) {
			return res
		}
		// A unique index violation here means another registration won the
		// race between our check and the insert.
		if msg := uniqueViolationMessage(err); msg != "" {
			res.Errors = append(res.Errors, msg)
			return res
		}
		slog.Error("user registration failed", "source", "auth", "error", err.Error())
		res.Errors = append(res.Errors, MsgInternal)
		return res
	}

	res.Success = true
	res.VerificationCode = code
	return res
}

func uniqueViolationMessage(err error) string {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") && !strings.Contains(msg, "Duplicate entry") {
		return ""
	}
	if strings.Contains(msg, "username") {
		return MsgUsernameTaken
	}
	return MsgEmailTaken
}

// Authenticate checks an identifier (username or email) and password.
// Unknown accounts and wrong passwords produce the same message; an
// unverified email gets a distinct, actionable one.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) AuthResult {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return AuthResult{Errors: []string{MsgMissingCredentials}}
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return AuthResult{Errors: []string{MsgInvalidCredentials}}
	}
	if err != nil {
		slog.Error("user lookup failed", "source", "auth", "error", err.Error())
		return AuthResult{Errors: []string{MsgInternal}}
	}

	if !CheckPassword(user.PasswordHash, password) {
		return AuthResult{Errors: []string{MsgInvalidCredentials}}
	}

	if NeedsRehash(user.PasswordHash) {
		if hash, err := HashPassword(password); err == nil {
			if err := s.db.WithContext(ctx).Model(&models.User{}).
				Where("id = ?", user.ID).
				Update("password_hash", hash).Error; err != nil {
				// The old hash still works, so a failed upgrade is not fatal.
				slog.Warn("password rehash failed", "source", "auth", "user_id", user.ID, "error", err.Error())
			}
		}
	}

	if !user.Verified() {
		return AuthResult{Errors: []string{MsgEmailNotVerified}}
	}

	return AuthResult{Success: true, UserID: user.ID}
}

// VerifyEmail checks a submitted code for the account addressed by email
// and, on match, clears the code and expiry and stamps the verified-at
// timestamp in a single update.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) VerifyResult {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)

	if code == "" {
		return VerifyResult{Errors: []string{MsgMissingCode}}
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return VerifyResult{Errors: []string{MsgUnknownAccount}}
	}
	if err != nil {
		slog.Error("user lookup failed", "source", "auth", "error", err.Error())
		return VerifyResult{Errors: []string{MsgInternal}}
	}

	if user.Verified() {
		return VerifyResult{Errors: []string{MsgAlreadyVerified}}
	}
	if user.EmailVerificationCode == nil || *user.EmailVerificationCode == "" {
		return VerifyResult{Errors: []string{MsgNoActiveCode}}
	}
	if user.VerificationCodeExpiresAt != nil && time.Now().After(*user.VerificationCodeExpiresAt) {
		return VerifyResult{Errors: []string{MsgCodeExpired}}
	}
	if !CheckVerificationCode(*user.EmailVerificationCode, code) {
		return VerifyResult{Errors: []string{MsgCodeIncorrect}}
	}

	err = s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"email_verified_at":            time.Now(),
			"email_verification_code":      nil,
			"verification_code_expires_at": nil,
		}).Error
	if err != nil {
		slog.Error("email verification update failed", "source", "auth", "user_id", user.ID, "error", err.Error())
		return VerifyResult{Errors: []string{MsgInternal}}
	}

	slog.Info("email verified", "source", "auth", "user_id", user.ID)
	return VerifyResult{Success: true}
}

// ResendVerificationCode rotates the stored code and expiry for a pending
// account and returns the new plaintext code to the caller for delivery.
func (s *Service) ResendVerificationCode(ctx context.Context, email string) RegisterResult {
	email = strings.TrimSpace(email)
	res := RegisterResult{Email: email}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		res.Errors = append(res.Errors, MsgUnknownAccount)
		return res
	}
	if err != nil {
		slog.Error("user lookup failed", "source", "auth", "error", err.Error())
		res.Errors = append(res.Errors, MsgInternal)
		return res
	}

	res.UserID = user.ID
	res.Username = user.Username

	if user.Verified() {
		res.Errors = append(res.Errors, MsgAlreadyVerified)
		return res
	}

	code, err := GenerateVerificationCode()
	if err != nil {
		slog.Error("verification code generation failed", "source", "auth", "error", err.Error())
		res.Errors = append(res.Errors, MsgInternal)
		return res
	}
	codeHash, err := HashVerificationCode(code)
	if err != nil {
		slog.Error("verification code hashing failed", "source", "auth", "error", err.Error())
		res.Errors = append(res.Errors, MsgInternal)
		return res
	}
	expiresAt := time.Now().Add(codeTTL)

	err = s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"email_verification_code":      codeHash,
			"verification_code_expires_at": expiresAt,
		}).Error
	if err != nil {
		slog.Error("verification code rotation failed", "source", "auth", "user_id", user.ID, "error", err.Error())
		res.Errors = append(res.Errors, MsgInternal)
		return res
	}

	res.Success = true
	res.VerificationCode = code
	return res
}

// GetUserByID returns a projection of the account without the password
// hash or verification code columns.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Select("id", "username", "email", "email_verified_at", "created_at").
		First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUserByID removes an account. It exists as the compensating action
// for a registration whose verification email could not be delivered.
func (s *Service) DeleteUserByID(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.User{}, id).Error
}
