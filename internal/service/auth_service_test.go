package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	to   string
	body string
}

func (c *captureSender) SendSMS(toNumber, body string) error {
	c.to = toNumber
	c.body = body
	return nil
}

var codeRe = regexp.MustCompile(`[0-9]{6}`)

func newTestAuth(sender *captureSender) (*AuthService, *time.Time) {
	svc := NewAuthService(nil, sender, "test-secret")
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("+919876543210")
	require.NoError(t, err)
	require.Equal(t, "9876543210", got)

	got, err = NormalizePhone("9876543210")
	require.NoError(t, err)
	require.Equal(t, "9876543210", got)

	for _, bad := range []string{"", "12345", "5876543210", "98765432101", "98765abc10"} {
		_, err := NormalizePhone(bad)
		require.ErrorIs(t, err, ErrInvalidPhone, "phone %q", bad)
	}
}

func TestRequestAndVerifyOTP(t *testing.T) {
	sender := &captureSender{}
	svc, _ := newTestAuth(sender)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "+919876543210"))
	require.Equal(t, "9876543210", sender.to)
	code := codeRe.FindString(sender.body)
	require.Len(t, code, 6)

	token, err := svc.VerifyOTP(ctx, "9876543210", code)
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	require.Equal(t, "9876543210", sub)
}

func TestRequestOTPInvalidPhone(t *testing.T) {
	svc, _ := newTestAuth(&captureSender{})
	require.ErrorIs(t, svc.RequestOTP(context.Background(), "12345"), ErrInvalidPhone)
}

func TestResendCooldown(t *testing.T) {
	sender := &captureSender{}
	svc, now := newTestAuth(sender)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "9876543210"))
	require.ErrorIs(t, svc.RequestOTP(ctx, "9876543210"), ErrResendCooldown)

	*now = now.Add(ResendCooldown + time.Second)
	require.NoError(t, svc.RequestOTP(ctx, "9876543210"))
}

func TestVerifyWrongCode(t *testing.T) {
	sender := &captureSender{}
	svc, _ := newTestAuth(sender)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "9876543210"))
	_, err := svc.VerifyOTP(ctx, "9876543210", "000000")
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyExpiredCode(t *testing.T) {
	sender := &captureSender{}
	svc, now := newTestAuth(sender)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "9876543210"))
	code := codeRe.FindString(sender.body)

	*now = now.Add(otpTTL + time.Second)
	_, err := svc.VerifyOTP(ctx, "9876543210", code)
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyConsumesCode(t *testing.T) {
	sender := &captureSender{}
	svc, _ := newTestAuth(sender)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "9876543210"))
	code := codeRe.FindString(sender.body)

	_, err := svc.VerifyOTP(ctx, "9876543210", code)
	require.NoError(t, err)

	_, err = svc.VerifyOTP(ctx, "9876543210", code)
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestPurgeExpiredLocal(t *testing.T) {
	sender := &captureSender{}
	svc, now := newTestAuth(sender)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "9876543210"))
	*now = now.Add(otpTTL + time.Second)
	svc.PurgeExpiredLocal()

	code := codeRe.FindString(sender.body)
	_, err := svc.VerifyOTP(ctx, "9876543210", code)
	require.ErrorIs(t, err, ErrInvalidOTP)
}
