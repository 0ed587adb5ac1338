package study

import (
	"strconv"
	"strings"
)

// SyntheticPrefix namespaces ids of events expanded from a slot.
const SyntheticPrefix = "slot-"

// SyntheticID returns the id of the n-th session (1-based) expanded from a
// slot. The first session keeps the bare "slot-<id>" form so re-expansion
// yields the same id every week.
func SyntheticID(slotID string, n int) string {
	if n <= 1 {
		return SyntheticPrefix + slotID
	}
	return SyntheticPrefix + slotID + ":" + strconv.Itoa(n)
}

// IsSyntheticID reports whether id belongs to a slot-derived event.
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, SyntheticPrefix)
}

// ParseSyntheticID returns the source slot id and the session number.
func ParseSyntheticID(id string) (slotID string, n int, ok bool) {
	if !IsSyntheticID(id) {
		return "", 0, false
	}
	rest := strings.TrimPrefix(id, SyntheticPrefix)
	if rest == "" {
		return "", 0, false
	}
	base, num, found := strings.Cut(rest, ":")
	if !found {
		return rest, 1, true
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 2 || base == "" {
		return "", 0, false
	}
	return base, n, true
}

// ValidatePersistedID rejects ids that would collide with the synthetic namespace.
func ValidatePersistedID(id string) error {
	if IsSyntheticID(id) {
		return &ValidationError{Field: "id", Message: ErrReservedID.Error(), Err: ErrReservedID}
	}
	return nil
}
