// Package credentials hashes and verifies passwords with bcrypt and
// enforces the password strength policy.
package credentials

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultCost = 12

	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72

	// Symbols is the punctuation set that satisfies the symbol rule.
	Symbols = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~"
)

// Hasher is safe for concurrent use.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewHasher returns a Hasher using the given bcrypt cost.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// HashPassword returns the bcrypt encoding of plain with a fresh salt.
func (h *Hasher) HashPassword(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", common.WeakPassword(fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches hash. Malformed hashes
// verify as false.
func (h *Hasher) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// EqualizeTiming spends one bcrypt comparison against a throwaway hash.
// Login calls it for unknown subjects so they cost as much as a wrong
// password for a known one.
func (h *Hasher) EqualizeTiming(plain string) {
	h.dummyOnce.Do(func() {
		h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("myplanner-dummy-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(plain))
}

// ValidatePasswordStrength checks plain against the policy and returns a
// common.KindWeakPassword error naming the first rule that fails.
func ValidatePasswordStrength(plain string) error {
	if len([]rune(plain)) < MinPasswordLength {
		return common.WeakPassword(fmt.Sprintf("password must be at least %d characters long", MinPasswordLength))
	}
	if len(plain) > MaxPasswordBytes {
		return common.WeakPassword(fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}

	var upper, lower, digit, symbol bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(Symbols, r):
			symbol = true
		}
	}

	switch {
	case !upper:
		return common.WeakPassword("password must contain an upper-case letter")
	case !lower:
		return common.WeakPassword("password must contain a lower-case letter")
	case !digit:
		return common.WeakPassword("password must contain a digit")
	case !symbol:
		return common.WeakPassword("password must contain a symbol")
	}
	return nil
}
