package pgutils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{&pgconn.PgError{Code: CodeSerializationFailure}, true},
		{fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: CodeDeadlockDetected}), true},
		{&pgconn.PgError{Code: CodeLockNotAvailable}, true},
		{&pgconn.PgError{Code: CodeUniqueViolation}, false},
		{errors.New("boom"), false},
		{nil, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTransient(tt.err), "%v", tt.err)
	}
}

func TestHasCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "rule_sets_name_key"})

	assert.True(t, HasCode(err, CodeUniqueViolation))
	assert.False(t, HasCode(err, CodeCheckViolation))
	assert.Equal(t, "rule_sets_name_key", ConstraintName(err))
	assert.Empty(t, ConstraintName(errors.New("x")))
}
