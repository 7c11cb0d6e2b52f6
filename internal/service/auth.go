// Package service provides the auth server business logic: verification
// code dispatch and phone login. Persistence is delegated to a
// UserRepository and a CodeStore.
package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/chatdemo/internal/models"
)

var (
	ErrPhoneIllegal    = errors.New("phone number illegal")
	ErrCodeNotSent     = errors.New("no verification code sent")
	ErrCodeMismatch    = errors.New("verification code mismatch")
	ErrSendTooFrequent = errors.New("verification code requested too often")
)

// DailyLimitError is returned once a phone has used up its daily codes.
type DailyLimitError struct {
	Limit int
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("daily limit of %d verification codes exceeded", e.Limit)
}

// phonePattern accepts international numbers without separators.
var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{6,14}$`)

const codeDigits = 6

// UserRepository defines the persistence operations required by the
// auth service.
type UserRepository interface {
	// UpsertUser records a login for phone. A new user gets chatUserName;
	// an existing one keeps its name. The stored user is returned.
	UpsertUser(ctx context.Context, phone, chatUserName string) (models.AppUser, error)
	// CreateSession stores an issued token id until expiresAt.
	CreateSession(ctx context.Context, id, chatUserName string, expiresAt time.Time) error
}

// CodeStore keeps verification codes and send counters.
type CodeStore interface {
	SaveCode(ctx context.Context, phone, code string, ttl time.Duration) error
	// Code returns the pending code; ok is false when none is pending.
	Code(ctx context.Context, phone string) (code string, ok bool, err error)
	DeleteCode(ctx context.Context, phone string) error
	// AcquireCooldown reports false while an earlier cooldown is running.
	AcquireCooldown(ctx context.Context, phone string, d time.Duration) (bool, error)
	// IncrDaily counts a send and returns today's total for phone.
	IncrDaily(ctx context.Context, phone string) (int64, error)
}

// Limits bounds verification code dispatch.
type Limits struct {
	CodeTTL    time.Duration
	Cooldown   time.Duration
	DailyLimit int
}

// AuthService implements the auth server operations.
type AuthService struct {
	users  UserRepository
	codes  CodeStore
	sender SMSSender
	tokens *TokenManager
	limits Limits
	log    *zap.Logger
}

// NewAuthService constructs an AuthService. log may be nil.
func NewAuthService(users UserRepository, codes CodeStore, sender SMSSender, tokens *TokenManager, limits Limits, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, codes: codes, sender: sender, tokens: tokens, limits: limits, log: log}
}

// SendCode generates a verification code for phone and hands it to the
// SMS sender.
func (s *AuthService) SendCode(ctx context.Context, phone string) error {
	if !phonePattern.MatchString(phone) {
		return ErrPhoneIllegal
	}

	ok, err := s.codes.AcquireCooldown(ctx, phone, s.limits.Cooldown)
	if err != nil {
		return fmt.Errorf("acquire cooldown: %w", err)
	}
	if !ok {
		return ErrSendTooFrequent
	}

	n, err := s.codes.IncrDaily(ctx, phone)
	if err != nil {
		return fmt.Errorf("count daily sends: %w", err)
	}
	if s.limits.DailyLimit > 0 && n > int64(s.limits.DailyLimit) {
		return &DailyLimitError{Limit: s.limits.DailyLimit}
	}

	code, err := newCode()
	if err != nil {
		return err
	}
	if err := s.codes.SaveCode(ctx, phone, code, s.limits.CodeTTL); err != nil {
		return fmt.Errorf("save code: %w", err)
	}
	if err := s.sender.SendCode(ctx, phone, code); err != nil {
		return fmt.Errorf("deliver code: %w", err)
	}
	s.log.Debug("verification code sent", zap.String("phone", phone), zap.Int64("today", n))
	return nil
}

// Login exchanges a verification code for a chat login token. A code can
// be used once.
func (s *AuthService) Login(ctx context.Context, phone, code string) (models.LoginResult, error) {
	if !phonePattern.MatchString(phone) {
		return models.LoginResult{}, ErrPhoneIllegal
	}

	want, ok, err := s.codes.Code(ctx, phone)
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("load code: %w", err)
	}
	if !ok {
		return models.LoginResult{}, ErrCodeNotSent
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(code)) != 1 {
		return models.LoginResult{}, ErrCodeMismatch
	}
	if err := s.codes.DeleteCode(ctx, phone); err != nil {
		return models.LoginResult{}, fmt.Errorf("consume code: %w", err)
	}

	user, err := s.users.UpsertUser(ctx, phone, newChatUserName())
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("upsert user: %w", err)
	}
	token, id, exp, err := s.tokens.Issue(user.ChatUserName, phone)
	if err != nil {
		return models.LoginResult{}, err
	}
	if err := s.users.CreateSession(ctx, id, user.ChatUserName, exp); err != nil {
		return models.LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("phone login", zap.String("chat_user", user.ChatUserName))
	return models.LoginResult{Phone: phone, Token: token, Username: user.ChatUserName}, nil
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func newChatUserName() string {
	return "u" + strings.ReplaceAll(uuid.NewString(), "-", "")[:15]
}
