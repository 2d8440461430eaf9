package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataSurface(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		details   bool
	}{
		{CodeValidation, http.StatusBadRequest, false, true},
		{CodeUnauthorized, http.StatusUnauthorized, false, false},
		{CodeForbidden, http.StatusForbidden, false, false},
		{CodeNotFound, http.StatusNotFound, false, false},
		{CodeConflict, http.StatusConflict, false, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, false, true},
		{CodeIdempotency, http.StatusConflict, false, true},
		{CodeRateLimit, http.StatusTooManyRequests, false, false},
		{CodeTooLarge, http.StatusRequestEntityTooLarge, false, true},
		{CodeTransientRemote, http.StatusInternalServerError, true, false},
		{CodeJobFailed, http.StatusInternalServerError, false, false},
		{CodeInternal, http.StatusInternalServerError, true, false},
		{CodeDependency, http.StatusServiceUnavailable, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.retryable, meta.Retryable)
			assert.Equal(t, tt.details, meta.DetailsAllowed)
			assert.NotEmpty(t, meta.PublicMessage)
		})
	}

	assert.Equal(t, MetadataFor(CodeInternal), MetadataFor("NOT_A_CODE"))
}

func TestWrapKeepsCauseAndDetails(t *testing.T) {
	cause := stdErrors.New("bucket unreachable")
	err := Wrap(CodeDependency, cause, "upload source asset").WithDetails(map[string]string{"bucket": "media"})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeDependency, err.Code())
	assert.Equal(t, "upload source asset", err.Message())
	assert.Equal(t, "DEPENDENCY_ERROR: upload source asset", err.Error())
	assert.Equal(t, map[string]string{"bucket": "media"}, err.Details())

	bare := Wrap(CodeNotFound, nil, "template not found")
	assert.Nil(t, bare.Unwrap())
}

func TestNilErrorAccessors(t *testing.T) {
	var e *Error
	assert.Equal(t, CodeInternal, e.Code())
	assert.Empty(t, e.Message())
	assert.Nil(t, e.Details())
	assert.Nil(t, e.WithDetails("x"))
}

func TestAsAndIsCodeWalkTheChain(t *testing.T) {
	inner := New(CodeTransientRemote, "vertex unavailable")
	outer := fmt.Errorf("submit image job: %w", inner)

	got := As(outer)
	require.NotNil(t, got)
	assert.Same(t, inner, got)
	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("plain")))

	assert.True(t, IsCode(outer, CodeTransientRemote))
	assert.False(t, IsCode(outer, CodeNotFound))
	assert.False(t, IsCode(nil, CodeInternal))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("poll: %w", New(CodeTransientRemote, "vertex 503"))))
	assert.False(t, IsRetryable(New(CodeJobFailed, "no artifacts")))
	assert.False(t, IsRetryable(stdErrors.New("plain")))
}
