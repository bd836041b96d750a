package booking

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RawStatus is a backend status code after canonicalization.
type RawStatus string

const (
	RawPending   RawStatus = "en_attente"
	RawConfirmed RawStatus = "confirmee"
	RawAccepted  RawStatus = "accepte"
	RawRefused   RawStatus = "refuse"
	RawCancelled RawStatus = "annulee"
)

type DisplayStatus string

const (
	StatusPending   DisplayStatus = "pending"
	StatusAccepted  DisplayStatus = "accepted"
	StatusRefused   DisplayStatus = "refused"
	StatusCancelled DisplayStatus = "cancelled"
	StatusExpired   DisplayStatus = "expired"
)

// DisplayStatuses lists the closed display vocabulary in badge order.
var DisplayStatuses = []DisplayStatus{
	StatusPending,
	StatusAccepted,
	StatusRefused,
	StatusCancelled,
	StatusExpired,
}

var rawAliases = map[string]RawStatus{
	"en_attente": RawPending,
	"enattente":  RawPending,
	"pending":    RawPending,
	"confirmee":  RawConfirmed,
	"confirmed":  RawConfirmed,
	"accepte":    RawAccepted,
	"acceptee":   RawAccepted,
	"accepted":   RawAccepted,
	"refuse":     RawRefused,
	"refusee":    RawRefused,
	"refused":    RawRefused,
	"rejected":   RawRefused,
	"annulee":    RawCancelled,
	"annule":     RawCancelled,
	"cancelled":  RawCancelled,
	"canceled":   RawCancelled,
}

var displayByRaw = map[RawStatus]DisplayStatus{
	RawPending:   StatusPending,
	RawConfirmed: StatusAccepted,
	RawAccepted:  StatusAccepted,
	RawRefused:   StatusRefused,
	RawCancelled: StatusCancelled,
}

// CanonicalStatus folds case, surrounding space, separators and diacritics
// ("Confirmée" -> confirmee) and resolves known aliases. Unknown input yields "".
func CanonicalStatus(raw string) RawStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	if status, ok := rawAliases[s]; ok {
		return status
	}

	// transform.Chain carries state, build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return rawAliases[folded]
}

// StatusOf maps a backend status onto the display vocabulary, ignoring expiry.
// Unknown or missing statuses fall back to pending.
func StatusOf(raw string) DisplayStatus {
	if status, ok := displayByRaw[CanonicalStatus(raw)]; ok {
		return status
	}
	return StatusPending
}

// Resolve returns the badge for a reservation. Expiry replaces pending and
// accepted; refused and cancelled keep their own status once the trip is past.
func Resolve(raw string, expired bool) DisplayStatus {
	status := StatusOf(raw)
	if expired && (status == StatusPending || status == StatusAccepted) {
		return StatusExpired
	}
	return status
}

func (s DisplayStatus) Valid() bool {
	for _, status := range DisplayStatuses {
		if s == status {
			return true
		}
	}
	return false
}
