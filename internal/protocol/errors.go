package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Request validation (unknown item, bad amount, ambiguous name).
	ErrBadRequest = "E_BAD_REQUEST"

	// Policy layer.
	ErrNoPermission = "E_NO_PERMISSION"
	ErrNotInZone    = "E_NOT_IN_ZONE"
	ErrNoSpace      = "E_NO_SPACE"
	ErrNoStock      = "E_NO_STOCK"
	ErrNoFunds      = "E_NO_FUNDS"
	ErrMaxStock     = "E_MAX_STOCK"

	// Engine failures surfaced to the requester.
	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrNoPermission:    {},
	ErrNotInZone:       {},
	ErrNoSpace:         {},
	ErrNoStock:         {},
	ErrNoFunds:         {},
	ErrMaxStock:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
