package gate

import (
	"strings"

	gateapi "github.com/gateio/gateapi-go/v7"
)

// IsNotFound reports whether the error is Gate telling us an entity is
// already gone (order cancelled out-of-band, position fully closed). These
// are expected outcomes, not failures.
func IsNotFound(err error) bool {
	e, ok := err.(gateapi.GateAPIError)
	if !ok {
		return false
	}
	if strings.HasSuffix(e.Label, "_NOT_FOUND") {
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "not found")
}

func isLeverageUnchanged(err error) bool {
	e, ok := err.(gateapi.GateAPIError)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(e.Message), "leverage not changed") ||
		e.Label == "LEVERAGE_NOT_CHANGED"
}

// describe renders a Gate API error with its server label when present.
func describe(err error) string {
	if e, ok := err.(gateapi.GateAPIError); ok {
		return "[" + e.Label + "] " + e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
