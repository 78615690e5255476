package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodePersistence, "failed to persist item")

	require.ErrorIs(t, err, cause)
	assert.True(t, Is(err, CodePersistence))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsChecksOutermostCode(t *testing.T) {
	inner := New(CodeNotFound, "item not found")
	outer := Wrap(inner, CodeInternal, "lookup failed")

	assert.True(t, Is(outer, CodeInternal))
	assert.False(t, Is(outer, CodeNotFound))
	assert.True(t, HasCode(outer, CodeNotFound))
}

func TestHasCodeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("notify: %w", New(CodeDeliveryFailed, "gateway rejected message"))
	assert.True(t, HasCode(err, CodeDeliveryFailed))
	assert.True(t, Is(err, CodeDeliveryFailed))
	assert.False(t, HasCode(errors.New("plain"), CodeDeliveryFailed))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidInput:         http.StatusBadRequest,
		CodeNotFound:             http.StatusNotFound,
		CodeGatewayMisconfigured: http.StatusInternalServerError,
		CodeDeliveryFailed:       http.StatusBadGateway,
		CodePersistence:          http.StatusInternalServerError,
		Code("unknown"):          http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
