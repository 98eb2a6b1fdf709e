package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpec(t *testing.T) {
	spec, err := Spec()
	require.NoError(t, err)

	for _, path := range []string{
		"/tasks",
		"/tasks/{taskId}",
		"/tasks/{taskId}/todos",
		"/tasks/{taskId}/todos/{todoId}",
		"/tasks/{taskId}/todos/{todoId}/toggle",
	} {
		assert.NotNil(t, spec.Paths.Find(path), path)
	}
}

func TestSpec_ReturnsIndependentCopies(t *testing.T) {
	a, err := Spec()
	require.NoError(t, err)
	b, err := Spec()
	require.NoError(t, err)

	a.Servers = nil
	assert.NotEmpty(t, b.Servers)
}
