// Package keys mints premium and trial access codes.
package keys

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sbpremium/gifts-backend/pkg/enums"
)

const (
	PremiumPrefix     = "SB-PREM-"
	TrialPrefix       = "SB-TRIAL-"
	premiumSeedLength = 10
	PremiumCodeLength = len(PremiumPrefix) + premiumSeedLength
)

// Issued is a freshly minted code. ExpiresAt is nil when the duration is not
// part of the canonical set.
type Issued struct {
	Code      string
	Kind      enums.CodeKind
	Duration  enums.Duration
	IssuedAt  time.Time
	ExpiresAt *time.Time
}

// Issuer derives codes from a random seed and the clock. Both are injectable.
type Issuer struct {
	now     func() time.Time
	newUUID func() uuid.UUID
	intn    func(n int) int
}

type Option func(*Issuer)

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func WithUUIDSource(fn func() uuid.UUID) Option {
	return func(i *Issuer) { i.newUUID = fn }
}

// WithIntn overrides the word picker; fn must return a value in [0, n).
func WithIntn(fn func(n int) int) Option {
	return func(i *Issuer) { i.intn = fn }
}

func NewIssuer(opts ...Option) *Issuer {
	i := &Issuer{
		now:     time.Now,
		newUUID: uuid.New,
		intn:    rand.IntN,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Premium mints SB-PREM-<10 hex>.
func (i *Issuer) Premium(d enums.Duration) Issued {
	seed := strings.ToUpper(strings.ReplaceAll(i.newUUID().String(), "-", ""))
	return i.issued(PremiumPrefix+seed[:premiumSeedLength], enums.CodeKindPremium, d)
}

// Trial mints SB-TRIAL-<DURATION>-<WORD>.
func (i *Issuer) Trial(d enums.Duration) Issued {
	return i.TrialExcept(d, func(string) bool { return false })
}

// TrialExcept mints a trial code for which taken reports false. Words are
// tried from a random start; once every word is taken a numeric suffix
// (-2, -3, ...) is appended.
func (i *Issuer) TrialExcept(d enums.Duration, taken func(code string) bool) Issued {
	words := Words(d)
	start := i.intn(len(words))
	for round := 1; ; round++ {
		for k := range words {
			code := fmt.Sprintf("%s%s-%s", TrialPrefix, d, words[(start+k)%len(words)])
			if round > 1 {
				code = fmt.Sprintf("%s-%d", code, round)
			}
			if !taken(code) {
				return i.issued(code, enums.CodeKindTrial, d)
			}
		}
	}
}

func (i *Issuer) issued(code string, kind enums.CodeKind, d enums.Duration) Issued {
	now := i.now().UTC()
	return Issued{
		Code:      code,
		Kind:      kind,
		Duration:  d,
		IssuedAt:  now,
		ExpiresAt: ExpiresAt(now, d),
	}
}

// Now exposes the issuer clock so callers stamp records consistently.
func (i *Issuer) Now() time.Time {
	return i.now().UTC()
}

// ExpiresAt returns from + days(d), or nil when d is not a known duration.
func ExpiresAt(from time.Time, d enums.Duration) *time.Time {
	days, ok := d.Days()
	if !ok {
		return nil
	}
	exp := from.AddDate(0, 0, days)
	return &exp
}

// IsPremiumCode reports whether code has the premium prefix and exact length.
func IsPremiumCode(code string) bool {
	return strings.HasPrefix(code, PremiumPrefix) && len(code) == PremiumCodeLength
}

// TrialTitle is the display title of a trial grant.
func TrialTitle(d enums.Duration) string {
	return fmt.Sprintf("Free Premium Trial (%s)", d)
}

const PremiumTitle = "Premium Key"
