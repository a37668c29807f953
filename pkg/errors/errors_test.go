package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(ErrCodeEntityNotFound, "office OFC123 not found")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeEntityNotFound, err.Code)
	assert.Equal(t, "[ENT_001] office OFC123 not found", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestErrorIncludesDetail(t *testing.T) {
	err := New(ErrCodeStoreQueryFailed, "query failed").WithDetail("collection=offices")
	assert.Equal(t, "[STORE_002] query failed: collection=offices", err.Error())
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
}

func TestWrapPreservesChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeStoreUnavailable, "store ping failed")
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, ErrCodeStoreUnavailable, GetCode(err))
}

func TestWrapWithInternalKeepsOriginalCode(t *testing.T) {
	inner := New(ErrCodeOracleUnparseable, "bad json")
	outer := Wrap(inner, ErrCodeInternal, "extraction failed")
	assert.Equal(t, ErrCodeOracleUnparseable, outer.Code)
}

func TestIsCodeTraversesChain(t *testing.T) {
	inner := New(ErrCodeVersionConflict, "stale write")
	outer := Wrap(inner, ErrCodeMergeFailed, "merge aborted")
	assert.True(t, IsCode(outer, ErrCodeVersionConflict))
	assert.True(t, IsCode(outer, ErrCodeMergeFailed))
	assert.False(t, IsCode(outer, ErrCodeNotFound))
}

func TestClassifierHelpers(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeDocumentNotFound, "missing")))
	assert.True(t, IsValidation(New(ErrCodeHeadquartersMissing, "no hq")))
	assert.True(t, IsConflict(New(ErrCodeVersionConflict, "stale")))
	assert.False(t, IsNotFound(New(ErrCodeInternal, "boom")))
}

func TestWithDetailOnNilReceiver(t *testing.T) {
	var err *AppError
	assert.Nil(t, err.WithDetail("ignored"))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatusForCode(ErrCodeEntityNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatusForCode(ErrCodeVersionConflict))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusForCode(ErrCodeOracleUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("NOPE_999")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "ENT", ModuleForCode(ErrCodeMergeFailed))
	assert.Equal(t, "ORACLE", ModuleForCode(ErrCodeOracleUnparseable))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}
