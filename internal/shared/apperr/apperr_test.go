package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("amount", "must be positive"), KindValidation},
		{"forbidden", Forbidden("auditors only"), KindAuthorization},
		{"not found", NotFound("transaction not found"), KindNotFound},
		{"unauthenticated", Unauthenticated("bad credentials"), KindUnauthenticated},
		{"storage", Storage("count transactions", errors.New("conn refused")), KindStorage},
		{"wrapped", fmt.Errorf("list: %w", NotFound("x")), KindNotFound},
		{"plain", errors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_MessageIncludesField(t *testing.T) {
	err := Validation("pageSize", "must be between 1 and 100")
	assert.Equal(t, "pageSize: must be between 1 and 100", err.Error())
}

func TestStorage_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Storage("find transactions", cause)

	assert.ErrorIs(t, err, cause)

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "find transactions", e.Message)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "storage", KindStorage.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
