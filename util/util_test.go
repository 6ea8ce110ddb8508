package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FirstNonEmptyString(t *testing.T) {
	assert.Equal(t, "a", FirstNonEmptyString("a", "b"))
	assert.Equal(t, "b", FirstNonEmptyString("", "b"))
	assert.Equal(t, "", FirstNonEmptyString("", ""))
}

func Test_HasString(t *testing.T) {
	assert.True(t, HasString([]string{"a", "b"}, "b"))
	assert.False(t, HasString([]string{"a", "b"}, "c"))
	assert.False(t, HasString(nil, "a"))
}

func Test_UniqueNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, UniqueNames([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, UniqueNames(nil))
}

func Test_MergeConfig(t *testing.T) {
	defaults := map[string]interface{}{
		"gain":   1.0,
		"window": map[string]interface{}{"size": 10, "overlap": 0},
	}
	params := map[string]interface{}{
		"gain":   2.0,
		"window": map[string]interface{}{"overlap": 5},
	}

	cfg, err := MergeConfig(defaults, params)
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg["gain"])
	window := cfg["window"].(map[string]interface{})
	assert.Equal(t, 10, window["size"])
	assert.Equal(t, 5, window["overlap"])

	// defaults stay untouched
	assert.Equal(t, 1.0, defaults["gain"])
	assert.Equal(t, 0, defaults["window"].(map[string]interface{})["overlap"])
}

func Test_MergeConfig_RequiredParams(t *testing.T) {
	defaults := map[string]interface{}{
		"gain":   nil,
		"window": map[string]interface{}{"size": nil},
	}

	_, err := MergeConfig(defaults, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gain")
	assert.Contains(t, err.Error(), "window.size")

	cfg, err := MergeConfig(defaults, map[string]interface{}{
		"gain":   1.0,
		"window": map[string]interface{}{"size": 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg["window"].(map[string]interface{})["size"])
}
