package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelOfItsKind(t *testing.T) {
	err := NotFound("catalog item %q", "abc")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInactive))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, `not_found: catalog item "abc"`, err.Error())
}

func TestInactiveIsAlsoNotFound(t *testing.T) {
	err := New(KindInactive, "item is no longer sold")

	assert.True(t, errors.Is(err, ErrInactive))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestWrappedErrorKeepsKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := fmt.Errorf("create order: %w", Gateway(cause, "razorpay unavailable"))

	assert.True(t, errors.Is(err, ErrGateway))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, KindGateway, KindOf(err))
}

func TestIntegrityErrorsAreNotRetryable(t *testing.T) {
	assert.False(t, IsRetryable(Integrity("bad signature")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestKindOfPlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestValidationCarriesFields(t *testing.T) {
	err := Validation("invalid request", FieldError{Field: "email", Message: "must be a valid email"})

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, []FieldError{{Field: "email", Message: "must be a valid email"}}, FieldsOf(err))
	assert.Nil(t, FieldsOf(errors.New("other")))
}
