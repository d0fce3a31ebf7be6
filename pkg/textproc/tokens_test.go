package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testCounter(t *testing.T) *TokenCounter {
	t.Helper()
	return NewTokenCounter(zap.NewNop())
}

func TestCountGrowsWithText(t *testing.T) {
	c := testCounter(t)

	short := c.Count("the approval process")
	long := c.Count(strings.Repeat("the approval process for clinical trials ", 50))

	assert.Greater(t, short, 0)
	assert.Greater(t, long, short)
}

func TestCountEmpty(t *testing.T) {
	assert.Equal(t, 0, testCounter(t).Count(""))
}

func TestTruncateShortTextUnchanged(t *testing.T) {
	c := testCounter(t)
	text := "a short sentence"
	assert.Equal(t, text, c.Truncate(text, 1000))
}

func TestTruncateReducesTokens(t *testing.T) {
	c := testCounter(t)
	text := strings.Repeat("regulatory approval requirements and timelines ", 200)

	out := c.Truncate(text, 50)
	assert.Less(t, c.Count(out), c.Count(text))
	assert.LessOrEqual(t, c.Count(out), 60)
	assert.True(t, strings.HasPrefix(text, out[:10]))
}

func TestTruncateZeroBudget(t *testing.T) {
	assert.Equal(t, "", testCounter(t).Truncate("anything", 0))
}
