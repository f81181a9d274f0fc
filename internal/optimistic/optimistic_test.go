package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_Commit(t *testing.T) {
	value := false
	var during bool

	err := Apply(context.Background(),
		func() { value = true },
		func(context.Context) error { during = value; return nil },
		func() { value = false },
	)

	require.NoError(t, err)
	assert.True(t, during, "apply runs before commit")
	assert.True(t, value)
}

func TestApply_RevertsOnFailure(t *testing.T) {
	value := false
	boom := errors.New("boom")

	err := Apply(context.Background(),
		func() { value = true },
		func(context.Context) error { return boom },
		func() { value = false },
	)

	require.ErrorIs(t, err, boom)
	assert.False(t, value)
}
