package service

import (
	"context"

	"go.uber.org/zap"
)

// SMSSender delivers verification codes.
type SMSSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log instead of sending them. It is the
// sender used when no SMS gateway is configured.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) SendCode(_ context.Context, phone, code string) error {
	s.Log.Info("verification code", zap.String("phone", phone), zap.String("code", code))
	return nil
}
