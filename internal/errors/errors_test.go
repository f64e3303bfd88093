package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	e := &Error{Message: "boom"}
	assert.Equal(t, "boom", e.Error())

	wrapped := e.Wrap(fmt.Errorf("underlying"))
	assert.Equal(t, "boom: underlying", wrapped.Error())
}

func TestError_Is_MatchesByCode(t *testing.T) {
	a := &Error{Code: "FOO"}
	b := &Error{Code: "FOO", Message: "different message"}
	c := &Error{Code: "BAR"}

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
	assert.False(t, a.Is(fmt.Errorf("not a domain error")))
}

func TestError_Wrap_PreservesIdentity(t *testing.T) {
	sentinel := &Error{Code: "SENTINEL", Message: "sentinel message", HTTPStatus: http.StatusTeapot}
	wrapped := sentinel.Wrap(fmt.Errorf("root cause"))

	assert.True(t, Is(wrapped, sentinel))
	assert.Equal(t, sentinel.HTTPStatus, wrapped.HTTPStatus)
	assert.ErrorIs(t, wrapped.Unwrap(), wrapped.Err)
}

func TestError_WithDetails_DoesNotMutateReceiver(t *testing.T) {
	sentinel := &Error{Code: "SENTINEL", Message: "m"}

	withA := sentinel.WithDetails("key", "a")
	withB := sentinel.WithDetails("key", "b")

	assert.Nil(t, sentinel.Details, "the shared sentinel must stay untouched")
	assert.Equal(t, "a", withA.Details["key"])
	assert.Equal(t, "b", withB.Details["key"])
}

func TestGetHTTPStatus(t *testing.T) {
	domainErr := &Error{HTTPStatus: http.StatusBadRequest}
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(domainErr))

	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(fmt.Errorf("plain error")))
}
