package booking

// CanCancel gates the passenger's cancel action: the reservation must still be
// pending or accepted and its trip must not be past.
func CanCancel(raw string, expired bool) bool {
	if expired {
		return false
	}
	switch CanonicalStatus(raw) {
	case RawPending, RawAccepted, RawConfirmed:
		return true
	}
	return false
}

// CanRespond gates the driver's accept/refuse action.
func CanRespond(raw string, expired bool) bool {
	return !expired && CanonicalStatus(raw) == RawPending
}
