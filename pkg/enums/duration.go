package enums

import (
	"fmt"
	"strings"
)

// Duration is the canonical premium/trial length token.
type Duration string

const (
	Duration1D  Duration = "1D"
	Duration3D  Duration = "3D"
	Duration7D  Duration = "7D"
	Duration14D Duration = "14D"
	Duration30D Duration = "30D"
)

var validDurations = []Duration{
	Duration1D,
	Duration3D,
	Duration7D,
	Duration14D,
	Duration30D,
}

var durationDays = map[Duration]int{
	Duration1D:  1,
	Duration3D:  3,
	Duration7D:  7,
	Duration14D: 14,
	Duration30D: 30,
}

// legacy spellings still sent by older bot builds.
var durationAliases = map[string]Duration{
	"1 day":   Duration1D,
	"3 days":  Duration3D,
	"7 days":  Duration7D,
	"14 days": Duration14D,
	"30 days": Duration30D,
	"1 month": Duration30D,
}

// Durations lists the canonical tokens in ascending order.
func Durations() []Duration {
	out := make([]Duration, len(validDurations))
	copy(out, validDurations)
	return out
}

// IsValid checks whether the given duration matches the canonical enum.
func (d Duration) IsValid() bool {
	_, ok := durationDays[d]
	return ok
}

// Days returns the number of days the token grants.
func (d Duration) Days() (int, bool) {
	days, ok := durationDays[d]
	return days, ok
}

func (d Duration) String() string {
	return string(d)
}

// ParseDuration converts raw strings into Duration, accepting legacy long forms.
func ParseDuration(value string) (Duration, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(value), " "))
	if alias, ok := durationAliases[normalized]; ok {
		return alias, nil
	}
	candidate := Duration(strings.ToUpper(normalized))
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid duration %q", value)
}
