package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"parkease/internal/repository"
)

const (
	otpTTL         = 5 * time.Minute
	ResendCooldown = 30 * time.Second
	sessionTTL     = 24 * time.Hour
)

var (
	ErrInvalidPhone   = errors.New("invalid mobile number")
	ErrResendCooldown = errors.New("an OTP was sent recently, wait before requesting another")
	ErrInvalidOTP     = errors.New("invalid or expired OTP")
)

// Indian mobile: 10 digits starting 6-9, optional +91 prefix.
var phoneRe = regexp.MustCompile(`^(\+91)?[6-9][0-9]{9}$`)

type otpEntry struct {
	hash      string
	expiresAt time.Time
	createdAt time.Time
}

// AuthService runs the phone-number OTP flow and issues session tokens.
// With a user repository it keeps codes in Postgres; without one it keeps
// them in memory (local mode), with the same external behavior.
type AuthService struct {
	users     *repository.UserRepository
	sms       SMSSender
	jwtSecret []byte

	mu    sync.Mutex
	local map[string]otpEntry

	now func() time.Time
}

func NewAuthService(users *repository.UserRepository, sms SMSSender, jwtSecret string) *AuthService {
	return &AuthService{
		users:     users,
		sms:       sms,
		jwtSecret: []byte(jwtSecret),
		local:     make(map[string]otpEntry),
		now:       time.Now,
	}
}

// NormalizePhone strips the +91 prefix so a user is one store regardless
// of how they typed the number.
func NormalizePhone(phone string) (string, error) {
	if !phoneRe.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	if len(phone) > 10 {
		return phone[len(phone)-10:], nil
	}
	return phone, nil
}

// RequestOTP validates the number, enforces the resend cooldown, stores a
// bcrypt hash of a fresh 6-digit code and hands the code to the SMS
// sender. Delivery failure is logged, not surfaced: the code is valid
// either way and the user can retry delivery by resending.
func (s *AuthService) RequestOTP(ctx context.Context, phone string) error {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return err
	}

	last, err := s.latestOTP(ctx, phone)
	if err != nil {
		return err
	}
	if last != nil && s.now().Sub(last.createdAt) < ResendCooldown {
		return ErrResendCooldown
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generating OTP: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing OTP: %w", err)
	}
	if err := s.saveOTP(ctx, phone, string(hash)); err != nil {
		return err
	}

	if err := s.sms.SendSMS(phone, fmt.Sprintf("Your ParkEase verification code is %s. Valid for 5 minutes.", code)); err != nil {
		log.Printf("Could not deliver OTP to %s: %v", phone, err)
	}
	return nil
}

// VerifyOTP checks the code against the stored hash and, on success,
// issues an HS256 session token with the phone as subject.
func (s *AuthService) VerifyOTP(ctx context.Context, phone, code string) (string, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}

	entry, err := s.latestOTP(ctx, phone)
	if err != nil {
		return "", err
	}
	if entry == nil || s.now().After(entry.expiresAt) {
		return "", ErrInvalidOTP
	}
	if bcrypt.CompareHashAndPassword([]byte(entry.hash), []byte(code)) != nil {
		return "", ErrInvalidOTP
	}
	if err := s.clearOTPs(ctx, phone); err != nil {
		log.Printf("Could not clear used OTP codes for %s: %v", phone, err)
	}

	claims := jwt.MapClaims{
		"sub": phone,
		"exp": s.now().Add(sessionTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) latestOTP(ctx context.Context, phone string) (*otpEntry, error) {
	if s.users == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if e, ok := s.local[phone]; ok {
			return &e, nil
		}
		return nil, nil
	}
	row, err := s.users.LatestOTP(ctx, phone)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return &otpEntry{hash: row.CodeHash, expiresAt: row.ExpiresAt, createdAt: row.CreatedAt}, nil
}

func (s *AuthService) saveOTP(ctx context.Context, phone, hash string) error {
	now := s.now()
	if s.users == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.local[phone] = otpEntry{hash: hash, expiresAt: now.Add(otpTTL), createdAt: now}
		return nil
	}
	return s.users.SaveOTP(ctx, phone, hash, now.Add(otpTTL))
}

func (s *AuthService) clearOTPs(ctx context.Context, phone string) error {
	if s.users == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.local, phone)
		return nil
	}
	return s.users.DeleteOTPs(ctx, phone)
}

// PurgeExpiredLocal drops expired in-memory codes. The cron job covers
// the Postgres side.
func (s *AuthService) PurgeExpiredLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for phone, e := range s.local {
		if now.After(e.expiresAt) {
			delete(s.local, phone)
		}
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
