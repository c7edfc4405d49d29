package gate

import (
	"errors"
	"testing"

	gateapi "github.com/gateio/gateapi-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(gateapi.GateAPIError{Label: "ORDER_NOT_FOUND"}))
	assert.True(t, IsNotFound(gateapi.GateAPIError{Label: "POSITION_NOT_FOUND"}))
	assert.True(t, IsNotFound(gateapi.GateAPIError{Label: "INVALID_PARAM", Message: "order not found"}))

	assert.False(t, IsNotFound(gateapi.GateAPIError{Label: "INVALID_SIGNATURE", Message: "bad sign"}))
	assert.False(t, IsNotFound(errors.New("connection refused")))
	assert.False(t, IsNotFound(nil))
}

func TestIsLeverageUnchanged(t *testing.T) {
	assert.True(t, isLeverageUnchanged(gateapi.GateAPIError{Label: "LEVERAGE_NOT_CHANGED"}))
	assert.True(t, isLeverageUnchanged(gateapi.GateAPIError{Label: "INVALID_PARAM", Message: "leverage not changed"}))
	assert.False(t, isLeverageUnchanged(gateapi.GateAPIError{Label: "INVALID_PARAM", Message: "bad leverage"}))
	assert.False(t, isLeverageUnchanged(errors.New("timeout")))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "[ORDER_NOT_FOUND] order gone", describe(gateapi.GateAPIError{Label: "ORDER_NOT_FOUND", Message: "order gone"}))
	assert.Equal(t, "plain", describe(errors.New("plain")))
	assert.Equal(t, "", describe(nil))
}
