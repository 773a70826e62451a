package errs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/sijms/go-ora/v2/network"
	"github.com/stretchr/testify/assert"
)

func TestClassify_OracleCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want Category
	}{
		{"no listener", 12541, Connection},
		{"connect timeout", 12170, Connection},
		{"session killed", 28, Connection},
		{"bad password", 1017, Authentication},
		{"account locked", 28000, Authentication},
		{"insufficient privileges", 1031, Permission},
		{"invalid identifier", 904, Syntax},
		{"command not ended", 933, Syntax},
		{"unique violation", 1, Data},
		{"missing table", 942, Data},
		{"parent key not found", 2291, Data},
		{"open cursors exceeded", 1000, Resource},
		{"no protocol handler", 12516, Resource},
		{"unmapped code", 7445, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &network.OracleError{ErrCode: tt.code}
			assert.Equal(t, tt.want, Classify(err))
		})
	}
}

func TestClassify_TextFallback(t *testing.T) {
	// Some failures arrive as plain text without a typed driver error.
	err := errors.New("query failed: ORA-12541: TNS:no listener")
	assert.Equal(t, Connection, Classify(err))
}

func TestClassify_StdErrors(t *testing.T) {
	assert.Equal(t, Connection, Classify(context.DeadlineExceeded))
	assert.Equal(t, Connection, Classify(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.Equal(t, Data, Classify(sql.ErrNoRows))
	assert.Equal(t, Unknown, Classify(errors.New("something odd")))
	assert.Equal(t, Unknown, Classify(nil))
}

func TestClassify_AlreadyClassified(t *testing.T) {
	inner := New(Resource, "pool exhausted")
	wrapped := fmt.Errorf("acquire: %w", inner)
	assert.Equal(t, Resource, Classify(wrapped))
}

func TestRecoveryFor(t *testing.T) {
	assert.Equal(t, RetryWithBackoff, RecoveryFor(Connection))
	assert.Equal(t, RetryWithBackoff, RecoveryFor(Resource))
	assert.Equal(t, RefreshCredentials, RecoveryFor(Authentication))
	assert.Equal(t, FailFast, RecoveryFor(Permission))
	assert.Equal(t, FailFast, RecoveryFor(Syntax))
	assert.Equal(t, FailFast, RecoveryFor(Data))
	assert.Equal(t, Escalate, RecoveryFor(Unknown))
}

func TestError_Format(t *testing.T) {
	cause := errors.New("ORA-00904: invalid identifier")
	err := Wrap(Syntax, "query failed", cause).WithStmt("SELECT nope FROM dual")

	assert.Equal(t, "[syntax] query failed: ORA-00904: invalid identifier", err.Error())
	assert.Equal(t, "SELECT nope FROM dual", err.Stmt)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestPredicates(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(Authentication, "bad credentials"))

	assert.True(t, IsAuthentication(err))
	assert.False(t, IsConnection(err))
	assert.False(t, IsAuthentication(errors.New("plain")))
}
