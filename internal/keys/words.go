package keys

import "github.com/sbpremium/gifts-backend/pkg/enums"

var trialWords = map[enums.Duration][]string{
	enums.Duration1D:  {"SPARK", "EMBER", "FLASH", "BLINK", "PULSE", "GLINT", "FLARE", "SWIFT", "DASH", "ZING"},
	enums.Duration3D:  {"BREEZE", "RIPPLE", "DRIFT", "CREST", "TIDE", "GUST", "SURGE", "WAVE", "FLOW", "STREAM"},
	enums.Duration7D:  {"COMET", "ORBIT", "NOVA", "LUNAR", "SOLAR", "METEOR", "ECLIPSE", "ZENITH", "AURORA", "QUASAR"},
	enums.Duration14D: {"TITAN", "GIANT", "SUMMIT", "CANYON", "GLACIER", "RIDGE", "BOULDER", "FORTRESS", "VOLCANO", "MONOLITH"},
	enums.Duration30D: {"LEGEND", "MYTHIC", "EPIC", "ETERNAL", "SOVEREIGN", "PHOENIX", "DRAGON", "EMPEROR", "CROWN", "DYNASTY"},
}

// codes minted for a duration outside the enum still need a word.
var fallbackWords = []string{"GIFT", "BONUS", "EXTRA", "TOKEN", "TREAT", "PERK", "BOOST", "CHARM", "PRIZE", "LUCK"}

// Words returns the word list used for trial codes of duration d.
func Words(d enums.Duration) []string {
	words, ok := trialWords[d]
	if !ok {
		words = fallbackWords
	}
	out := make([]string, len(words))
	copy(out, words)
	return out
}
