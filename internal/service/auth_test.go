package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/atinyakov/chatdemo/internal/models"
)

type mockUserRepo struct {
	UpsertUserFunc    func(ctx context.Context, phone, chatUserName string) (models.AppUser, error)
	CreateSessionFunc func(ctx context.Context, id, chatUserName string, expiresAt time.Time) error
}

func (m *mockUserRepo) UpsertUser(ctx context.Context, phone, chatUserName string) (models.AppUser, error) {
	return m.UpsertUserFunc(ctx, phone, chatUserName)
}
func (m *mockUserRepo) CreateSession(ctx context.Context, id, chatUserName string, expiresAt time.Time) error {
	return m.CreateSessionFunc(ctx, id, chatUserName, expiresAt)
}

type mockCodeStore struct {
	SaveCodeFunc        func(ctx context.Context, phone, code string, ttl time.Duration) error
	CodeFunc            func(ctx context.Context, phone string) (string, bool, error)
	DeleteCodeFunc      func(ctx context.Context, phone string) error
	AcquireCooldownFunc func(ctx context.Context, phone string, d time.Duration) (bool, error)
	IncrDailyFunc       func(ctx context.Context, phone string) (int64, error)
}

func (m *mockCodeStore) SaveCode(ctx context.Context, phone, code string, ttl time.Duration) error {
	return m.SaveCodeFunc(ctx, phone, code, ttl)
}
func (m *mockCodeStore) Code(ctx context.Context, phone string) (string, bool, error) {
	return m.CodeFunc(ctx, phone)
}
func (m *mockCodeStore) DeleteCode(ctx context.Context, phone string) error {
	return m.DeleteCodeFunc(ctx, phone)
}
func (m *mockCodeStore) AcquireCooldown(ctx context.Context, phone string, d time.Duration) (bool, error) {
	return m.AcquireCooldownFunc(ctx, phone, d)
}
func (m *mockCodeStore) IncrDaily(ctx context.Context, phone string) (int64, error) {
	return m.IncrDailyFunc(ctx, phone)
}

type senderFunc func(ctx context.Context, phone, code string) error

func (f senderFunc) SendCode(ctx context.Context, phone, code string) error {
	return f(ctx, phone, code)
}

var testLimits = Limits{CodeTTL: 5 * time.Minute, Cooldown: time.Minute, DailyLimit: 3}

// memCodes is a mockCodeStore backed by a map.
func memCodes(codes map[string]string) *mockCodeStore {
	return &mockCodeStore{
		SaveCodeFunc: func(_ context.Context, phone, code string, _ time.Duration) error {
			codes[phone] = code
			return nil
		},
		CodeFunc: func(_ context.Context, phone string) (string, bool, error) {
			c, ok := codes[phone]
			return c, ok, nil
		},
		DeleteCodeFunc: func(_ context.Context, phone string) error {
			delete(codes, phone)
			return nil
		},
		AcquireCooldownFunc: func(context.Context, string, time.Duration) (bool, error) {
			return true, nil
		},
		IncrDailyFunc: func(context.Context, string) (int64, error) {
			return 1, nil
		},
	}
}

func TestSendCode_Success(t *testing.T) {
	codes := map[string]string{}
	var sent string
	svc := NewAuthService(nil, memCodes(codes), senderFunc(func(_ context.Context, phone, code string) error {
		if phone != "13800138000" {
			t.Errorf("sender received phone = %q", phone)
		}
		sent = code
		return nil
	}), nil, testLimits, nil)

	if err := svc.SendCode(context.Background(), "13800138000"); err != nil {
		t.Fatalf("SendCode returned error: %v", err)
	}
	if !regexp.MustCompile(`^[0-9]{6}$`).MatchString(sent) {
		t.Errorf("sent code = %q; want 6 digits", sent)
	}
	if codes["13800138000"] != sent {
		t.Errorf("stored code = %q; want %q", codes["13800138000"], sent)
	}
}

func TestSendCode_Errors(t *testing.T) {
	storeErr := errors.New("redis down")
	tests := []struct {
		name    string
		phone   string
		store   func(*mockCodeStore)
		sendErr error
		check   func(t *testing.T, err error)
	}{
		{
			name:  "illegal phone",
			phone: "12ab",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrPhoneIllegal) {
					t.Errorf("err = %v; want ErrPhoneIllegal", err)
				}
			},
		},
		{
			name:  "cooldown",
			phone: "13800138000",
			store: func(m *mockCodeStore) {
				m.AcquireCooldownFunc = func(context.Context, string, time.Duration) (bool, error) { return false, nil }
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrSendTooFrequent) {
					t.Errorf("err = %v; want ErrSendTooFrequent", err)
				}
			},
		},
		{
			name:  "daily limit",
			phone: "13800138000",
			store: func(m *mockCodeStore) {
				m.IncrDailyFunc = func(context.Context, string) (int64, error) { return 4, nil }
			},
			check: func(t *testing.T, err error) {
				var le *DailyLimitError
				if !errors.As(err, &le) || le.Limit != 3 {
					t.Errorf("err = %v; want DailyLimitError{3}", err)
				}
			},
		},
		{
			name:  "store failure",
			phone: "13800138000",
			store: func(m *mockCodeStore) {
				m.AcquireCooldownFunc = func(context.Context, string, time.Duration) (bool, error) { return false, storeErr }
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, storeErr) {
					t.Errorf("err = %v; want wrapped %v", err, storeErr)
				}
			},
		},
		{
			name:    "delivery failure",
			phone:   "13800138000",
			sendErr: errors.New("gateway"),
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Error("expected error")
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := memCodes(map[string]string{})
			if tc.store != nil {
				tc.store(store)
			}
			svc := NewAuthService(nil, store, senderFunc(func(context.Context, string, string) error {
				return tc.sendErr
			}), nil, testLimits, nil)
			tc.check(t, svc.SendCode(context.Background(), tc.phone))
		})
	}
}

func TestLogin_Success(t *testing.T) {
	codes := map[string]string{"13800138000": "123456"}
	var sessionID string
	repo := &mockUserRepo{
		UpsertUserFunc: func(_ context.Context, phone, name string) (models.AppUser, error) {
			if name == "" {
				t.Error("expected a generated chat user name")
			}
			return models.AppUser{Phone: phone, ChatUserName: "alice"}, nil
		},
		CreateSessionFunc: func(_ context.Context, id, name string, exp time.Time) error {
			if name != "alice" {
				t.Errorf("session user = %q; want alice", name)
			}
			sessionID = id
			return nil
		},
	}
	tokens := NewTokenManager("secret", time.Hour)
	svc := NewAuthService(repo, memCodes(codes), nil, tokens, testLimits, nil)

	res, err := svc.Login(context.Background(), "13800138000", "123456")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Phone != "13800138000" || res.Username != "alice" || res.Token == "" {
		t.Errorf("Login = %+v", res)
	}

	claims, err := tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.Subject != "alice" || claims.ID != sessionID {
		t.Errorf("claims = %+v; want subject alice, id %q", claims, sessionID)
	}

	if _, err := svc.Login(context.Background(), "13800138000", "123456"); !errors.Is(err, ErrCodeNotSent) {
		t.Errorf("second Login err = %v; want ErrCodeNotSent", err)
	}
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		code  string
		want  error
	}{
		{"illegal phone", "abc", "123456", ErrPhoneIllegal},
		{"no code sent", "13900139000", "123456", ErrCodeNotSent},
		{"wrong code", "13800138000", "654321", ErrCodeMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			codes := map[string]string{"13800138000": "123456"}
			svc := NewAuthService(&mockUserRepo{}, memCodes(codes), nil, NewTokenManager("s", time.Hour), testLimits, nil)

			_, err := svc.Login(context.Background(), tc.phone, tc.code)
			if !errors.Is(err, tc.want) {
				t.Errorf("Login err = %v; want %v", err, tc.want)
			}
			if tc.want == ErrCodeMismatch && codes["13800138000"] == "" {
				t.Error("a mismatched attempt must not consume the code")
			}
		})
	}
}

func TestLogin_RepositoryError(t *testing.T) {
	wantErr := errors.New("db error")
	repo := &mockUserRepo{
		UpsertUserFunc: func(context.Context, string, string) (models.AppUser, error) {
			return models.AppUser{}, wantErr
		},
	}
	codes := map[string]string{"13800138000": "123456"}
	svc := NewAuthService(repo, memCodes(codes), nil, NewTokenManager("s", time.Hour), testLimits, nil)

	if _, err := svc.Login(context.Background(), "13800138000", "123456"); !errors.Is(err, wantErr) {
		t.Fatalf("Login err = %v; want wrapped %v", err, wantErr)
	}
}
