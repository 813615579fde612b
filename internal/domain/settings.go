package domain

// BackgroundFilter selects which backdrops a user wants alerts for.
type BackgroundFilter string

const (
	BackgroundAny       BackgroundFilter = "any"
	BackgroundNone      BackgroundFilter = "none"
	BackgroundBlackPack BackgroundFilter = "black_pack"
)

// String returns the string representation of BackgroundFilter.
func (f BackgroundFilter) String() string {
	return string(f)
}

// IsValid checks if the filter is a valid value.
func (f BackgroundFilter) IsValid() bool {
	return f == BackgroundAny || f == BackgroundNone || f == BackgroundBlackPack
}

// AlertMode selects how strict alerting is for a user.
type AlertMode string

const (
	ModeSpam   AlertMode = "spam"
	ModeSniper AlertMode = "sniper"
)

// String returns the string representation of AlertMode.
func (m AlertMode) String() string {
	return string(m)
}

// IsValid checks if the mode is a valid value.
func (m AlertMode) IsValid() bool {
	return m == ModeSpam || m == ModeSniper
}

// blackPackBackdrops is the fixed set of backdrops sold in the black pack.
var blackPackBackdrops = map[string]struct{}{
	"Black":      {},
	"Black Onyx": {},
}

// IsBlackPackBackdrop reports whether a backdrop belongs to the black pack set.
// A nil backdrop never does.
func IsBlackPackBackdrop(backdrop *string) bool {
	if backdrop == nil {
		return false
	}
	_, ok := blackPackBackdrops[*backdrop]
	return ok
}

// UserSettings is one user's alert filter configuration.
// Owned and mutated externally; read-only to the engines.
type UserSettings struct {
	UserID           int64
	Mode             AlertMode
	PriceMin         *float64 // nil means no lower bound
	PriceMax         *float64 // nil means no upper bound
	ProfitMin        float64  // minimum profit percentage
	BackgroundFilter BackgroundFilter
	Active           bool
}
