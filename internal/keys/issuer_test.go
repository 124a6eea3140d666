package keys

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbpremium/gifts-backend/pkg/enums"
)

var (
	premiumPattern = regexp.MustCompile(`^SB-PREM-[0-9A-F]{10}$`)
	trialPattern   = regexp.MustCompile(`^SB-TRIAL-(1D|3D|7D|14D|30D)-[A-Z]+$`)
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPremiumFormatForEveryDuration(t *testing.T) {
	issuer := NewIssuer()
	for _, d := range enums.Durations() {
		issued := issuer.Premium(d)
		assert.Regexp(t, premiumPattern, issued.Code)
		assert.Len(t, issued.Code, PremiumCodeLength)
		assert.True(t, IsPremiumCode(issued.Code))
		assert.Equal(t, enums.CodeKindPremium, issued.Kind)
		assert.Equal(t, d, issued.Duration)
	}
}

func TestTrialFormatForEveryDuration(t *testing.T) {
	issuer := NewIssuer()
	for _, d := range enums.Durations() {
		issued := issuer.Trial(d)
		require.Regexp(t, trialPattern, issued.Code)
		assert.Contains(t, issued.Code, "-"+d.String()+"-")
		word := issued.Code[len(TrialPrefix)+len(d.String())+1:]
		assert.Contains(t, Words(d), word)
		assert.Equal(t, enums.CodeKindTrial, issued.Kind)
	}
}

func TestPremiumSeedComesFromUUID(t *testing.T) {
	id := uuid.MustParse("0a1b2c3d-4e5f-4a7b-8c9d-0e1f2a3b4c5d")
	issuer := NewIssuer(WithUUIDSource(func() uuid.UUID { return id }))
	assert.Equal(t, "SB-PREM-0A1B2C3D4E", issuer.Premium(enums.Duration7D).Code)
}

func TestTrialWordPickerIsInjectable(t *testing.T) {
	issuer := NewIssuer(WithIntn(func(n int) int { return n - 1 }))
	words := Words(enums.Duration14D)
	assert.Equal(t, "SB-TRIAL-14D-"+words[len(words)-1], issuer.Trial(enums.Duration14D).Code)
}

func TestTrialExceptSkipsTakenCodes(t *testing.T) {
	issuer := NewIssuer(WithIntn(func(int) int { return 0 }))
	words := Words(enums.Duration7D)

	taken := map[string]bool{"SB-TRIAL-7D-" + words[0]: true}
	issued := issuer.TrialExcept(enums.Duration7D, func(code string) bool { return taken[code] })
	assert.Equal(t, "SB-TRIAL-7D-"+words[1], issued.Code)

	for _, w := range words {
		taken["SB-TRIAL-7D-"+w] = true
	}
	issued = issuer.TrialExcept(enums.Duration7D, func(code string) bool { return taken[code] })
	assert.Equal(t, "SB-TRIAL-7D-"+words[0]+"-2", issued.Code)
	assert.Equal(t, enums.CodeKindTrial, issued.Kind)
}

func TestExpiryFollowsDuration(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer(WithClock(fixedClock(now)))

	cases := map[enums.Duration]int{
		enums.Duration1D:  1,
		enums.Duration3D:  3,
		enums.Duration7D:  7,
		enums.Duration14D: 14,
		enums.Duration30D: 30,
	}
	for d, days := range cases {
		issued := issuer.Trial(d)
		require.NotNil(t, issued.ExpiresAt)
		assert.Equal(t, now, issued.IssuedAt)
		assert.Equal(t, now.AddDate(0, 0, days), *issued.ExpiresAt)
	}
}

func TestUnknownDurationHasNoExpiry(t *testing.T) {
	issuer := NewIssuer()
	issued := issuer.Premium(enums.Duration("2W"))
	assert.Nil(t, issued.ExpiresAt)
	assert.True(t, IsPremiumCode(issued.Code))

	trial := issuer.Trial(enums.Duration("2W"))
	assert.Nil(t, trial.ExpiresAt)
	assert.Contains(t, fallbackWords, trial.Code[len("SB-TRIAL-2W-"):])
}

func TestIsPremiumCode(t *testing.T) {
	assert.True(t, IsPremiumCode("SB-PREM-ABCDEF0123"))
	assert.False(t, IsPremiumCode("SB-PREM-ABCDEF012"))
	assert.False(t, IsPremiumCode("SB-PREM-ABCDEF01234"))
	assert.False(t, IsPremiumCode("SB-TRIAL-7D-NOVA"))
	assert.False(t, IsPremiumCode("XX-PREM-ABCDEF0123"))
}

func TestWordListsHaveTenEntries(t *testing.T) {
	for _, d := range enums.Durations() {
		assert.Len(t, Words(d), 10, d.String())
	}
}
