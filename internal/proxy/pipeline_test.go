package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOperationsSingle(t *testing.T) {
	ops, err := decodeOperations([]byte(`{"query":"{ hello }","variables":{"a":1}}`))
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "{ hello }", ops[0].Query)
}

func TestDecodeOperationsBatch(t *testing.T) {
	ops, err := decodeOperations([]byte(`[{"query":"{ a }"},{"query":"{ b }"}]`))
	require.NoError(t, err)
	assert.Len(t, ops, 2)
}

func TestDecodeOperationsInvalidJSON(t *testing.T) {
	_, err := decodeOperations([]byte(`not json`))
	assert.Error(t, err)
}

func TestAnyTrue(t *testing.T) {
	assert.False(t, anyTrue([]bool{false, false}))
	assert.True(t, anyTrue([]bool{false, true}))
	assert.False(t, anyTrue(nil))
}
