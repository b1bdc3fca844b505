package term

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/jconvert/internal/config"
)

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestResolve(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "not-a-tty"))
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, resolve(config.ColorAlways, f, env(nil)))
	assert.False(t, resolve(config.ColorNever, f, env(nil)))
	assert.False(t, resolve(config.ColorAuto, f, env(nil)), "regular file is not a terminal")
	assert.False(t, resolve(config.ColorAuto, nil, env(nil)))
}

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { Configure(config.ColorNever) })

	Configure(config.ColorAlways)
	assert.True(t, Enabled())
	assert.NotEmpty(t, Red)
	assert.Equal(t, "\033[0m", NC)

	Configure(config.ColorNever)
	assert.False(t, Enabled())
	assert.Empty(t, Green)
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "plain"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
	assert.False(t, IsTerminal(nil))
}
