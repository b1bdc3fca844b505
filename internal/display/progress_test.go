package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "Converting", 10, false)
	p.Update(1, 0, "a.json")
	p.Clear()
	assert.Empty(t, buf.String())

	var nilProgress *Progress
	nilProgress.Update(1, 0, "a.json")
	nilProgress.Clear()
}

func TestProgress_Draws(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "Converting", 4, true)

	p.Update(1, 0, "first.json")
	assert.True(t, strings.HasPrefix(buf.String(), "\r  Converting [1/4] 25% first.json"))

	buf.Reset()
	p.Update(2, 1, strings.Repeat("n", 60)+".json")
	line := buf.String()
	assert.Contains(t, line, "[2/4] 50% (1 failed) ")
	assert.Contains(t, line, "…")
	assert.NotContains(t, line, ".json")

	buf.Reset()
	p.Clear()
	assert.Equal(t, "\r"+strings.Repeat(" ", progressWidth)+"\r", buf.String())

	buf.Reset()
	p.Clear()
	assert.Empty(t, buf.String(), "nothing to clear twice")
}

func TestProgress_ZeroTotalDisabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "Converting", 0, true)
	p.Update(0, 0, "x")
	assert.Empty(t, buf.String())
}
