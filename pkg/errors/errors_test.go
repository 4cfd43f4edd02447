package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByType(t *testing.T) {
	err := New(ErrorTypeIPBanned, "banned on %s", "/view/1/")

	assert.True(t, stderrors.Is(err, ErrIPBanned))
	assert.False(t, stderrors.Is(err, ErrAccessDenied))

	wrapped := fmt.Errorf("get submission: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrIPBanned))
	assert.Equal(t, ErrorTypeIPBanned, TypeOf(wrapped))
}

func TestWrapUnwraps(t *testing.T) {
	err := Wrap(ErrorTypeFileUnreachable, io.ErrUnexpectedEOF, "fetch %s", "https://example.com/a.jpg")

	assert.True(t, stderrors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, stderrors.Is(err, ErrFileUnreachable))
	assert.Contains(t, err.Error(), "file_unreachable")
	assert.Contains(t, err.Error(), "unexpected EOF")
}

func TestErrorString(t *testing.T) {
	err := &Error{Type: ErrorTypeServerError, Message: "server error", Code: 503}
	assert.Equal(t, "server_error error: server error (code 503)", err.Error())

	bare := &Error{Type: ErrorTypeParsing}
	assert.Equal(t, "parsing error: parsing", bare.Error())
}

func TestTypeOfUnknown(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, TypeOf(io.EOF))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(nil))
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, IsDomainError(ErrSubmissionNotFound))
	assert.True(t, IsDomainError(ErrMaturityRestricted))
	assert.False(t, IsDomainError(ErrNotAuthenticated))
	assert.False(t, IsDomainError(io.EOF))
}
