package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewResultIsValid(t *testing.T) {
	res := NewResult()
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestAddCollectsAllFailures(t *testing.T) {
	res := NewResult()
	res.Add("first problem")
	res.Add("second problem")

	assert.False(t, res.Valid)
	assert.Equal(t, []string{"first problem", "second problem"}, res.Errors)
}

func TestRequire(t *testing.T) {
	res := NewResult()

	assert.True(t, res.Require(true, "should not be recorded"))
	assert.True(t, res.Valid)

	assert.False(t, res.Require(false, "recorded"))
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"recorded"}, res.Errors)
}
