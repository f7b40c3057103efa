package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeUserAgent(t *testing.T) {
	t.Run("empty header", func(t *testing.T) {
		assert.Equal(t, "", SummarizeUserAgent("  "))
	})

	t.Run("desktop browser", func(t *testing.T) {
		summary := SummarizeUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		assert.Contains(t, summary, "Chrome on ")
		assert.NotContains(t, summary, "120.0")
	})

	t.Run("unknown client", func(t *testing.T) {
		summary := SummarizeUserAgent("x")
		assert.NotEmpty(t, summary)
	})
}
