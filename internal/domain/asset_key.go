package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NoBackdropKey is the placeholder used in asset keys when an item has no backdrop.
const NoBackdropKey = "no_bg"

// ErrInvalidKey is returned when an asset key string cannot be parsed.
var ErrInvalidKey = errors.New("invalid asset key")

// AssetKey identifies one tradable attribute combination: model + backdrop,
// optionally narrowed to a single serial number. Two items are the same
// tradable class iff their keys are equal.
type AssetKey struct {
	Model    string
	Backdrop *string // nil means no backdrop
	Number   *int    // nil means the whole class, not one serial
}

// NewAssetKey builds a key from raw attributes.
func NewAssetKey(model string, backdrop *string, number *int) AssetKey {
	return AssetKey{Model: model, Backdrop: backdrop, Number: number}
}

// ParseAssetKey parses "Model:Backdrop[:Number]" with NoBackdropKey standing
// in for an absent backdrop. Returns ErrInvalidKey on malformed input.
func ParseAssetKey(s string) (AssetKey, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return AssetKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	if parts[0] == "" || parts[1] == "" {
		return AssetKey{}, fmt.Errorf("%w: empty segment in %q", ErrInvalidKey, s)
	}

	key := AssetKey{Model: parts[0]}
	if parts[1] != NoBackdropKey {
		backdrop := parts[1]
		key.Backdrop = &backdrop
	}
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 0 {
			return AssetKey{}, fmt.Errorf("%w: bad serial in %q", ErrInvalidKey, s)
		}
		key.Number = &n
	}
	return key, nil
}

// String formats the key canonically. ParseAssetKey(k.String()) == k.
func (k AssetKey) String() string {
	backdrop := NoBackdropKey
	if k.Backdrop != nil {
		backdrop = *k.Backdrop
	}
	if k.Number != nil {
		return fmt.Sprintf("%s:%s:%d", k.Model, backdrop, *k.Number)
	}
	return fmt.Sprintf("%s:%s", k.Model, backdrop)
}
