// Package identity derives deterministic transaction identity keys from
// (date, normalized merchant, amount). Identical logical transactions map to
// identical keys, so re-imports surface as primary-key collisions instead of
// silent duplicates; genuinely repeated charges are disambiguated with a
// numeric suffix.
package identity

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scheme selects the identity encoding. Two schemes coexist for migration
// purposes only; all new keys use SchemeCanonical.
type Scheme int

const (
	// SchemeCanonical encodes base64(date + merchant + amount), untruncated.
	SchemeCanonical Scheme = iota

	// SchemeLegacy additionally folds in the address and truncates to 20
	// characters. Lossy and collision-prone; kept only so Migrate can
	// recognize and rewrite old rows.
	SchemeLegacy
)

// legacyKeyLength is the truncation the legacy scheme applied.
const legacyKeyLength = 20

// Generator derives identity keys under a fixed scheme.
type Generator struct {
	scheme Scheme
}

// NewGenerator returns a Generator for the given scheme.
func NewGenerator(scheme Scheme) Generator {
	return Generator{scheme: scheme}
}

// Key derives the identity key for a transaction. The amount contributes its
// exact decimal string form, so "46.43" and "46.430" produce different keys
// only if the upstream parser produced them differently -- which it does not
// for the same statement line.
func (g Generator) Key(date, merchant string, amount decimal.Decimal) string {
	if g.scheme == SchemeLegacy {
		return g.LegacyKey(date, merchant, "", amount)
	}
	raw := date + merchant + amount.String()
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// LegacyKey reproduces the old truncated-with-address encoding. Only the
// migration path should call this.
func (g Generator) LegacyKey(date, merchant, address string, amount decimal.Decimal) string {
	raw := date + merchant + address + amount.String()
	key := base64.StdEncoding.EncodeToString([]byte(raw))
	if len(key) > legacyKeyLength {
		key = key[:legacyKeyLength]
	}
	return key
}

// Disambiguate returns the base key if unclaimed, otherwise the base with
// the smallest unused "-N" suffix (N >= 1) appended. exists reports whether
// a candidate key is already taken.
func Disambiguate(base string, exists func(string) bool) string {
	if !exists(base) {
		return base
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !exists(candidate) {
			return candidate
		}
	}
}

// Suffixed returns the key for the nth occurrence (0-based) of a
// (date, merchant, amount) tuple: the bare base for the first, "-N" after.
func Suffixed(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// IsVariantOf reports whether key is base itself or one of its suffixed
// occurrences.
func IsVariantOf(key, base string) bool {
	return key == base || strings.HasPrefix(key, base+"-")
}
