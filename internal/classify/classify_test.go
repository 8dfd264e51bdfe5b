package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRulePrecedence(t *testing.T) {
	rules := DefaultRules()

	testCases := []struct {
		name     string
		text     string
		author   string
		expected bool
		reason   string
	}{
		{
			name:     "Canonical account plain tweet",
			text:     "gm everyone",
			author:   "redstone_defi",
			expected: true,
			reason:   "Canonical account is always relevant regardless of content",
		},
		{
			name:     "Canonical account case-insensitive handle",
			text:     "announcement coming soon",
			author:   "RedStone_DeFi",
			expected: true,
			reason:   "Handle comparison is case-insensitive",
		},
		{
			name:     "Canonical account with denylisted term",
			text:     "new minecraft-themed community event",
			author:   "redstone_defi",
			expected: true,
			reason:   "Canonical account bypasses the denylist",
		},
		{
			name:     "Denylisted term beats direct mention phrase",
			text:     "building a redstone oracle in minecraft",
			author:   "someminer",
			expected: false,
			reason:   "Denylist precedence over phrase match for non-canonical authors",
		},
		{
			name:     "Minecraft homograph",
			text:     "check out my redstone torch contraption",
			author:   "blockplayer",
			expected: false,
			reason:   "Homograph terms exclude",
		},
		{
			name:     "Gaming term",
			text:     "RedStone is my favorite game level",
			author:   "gamer42",
			expected: false,
			reason:   "Denylist runs before the proper-noun check",
		},
		{
			name:     "Direct mention phrase",
			text:     "just integrated Redstone Oracle feeds into our protocol",
			author:   "defi_builder",
			expected: true,
			reason:   "High-confidence phrase matches case-insensitively",
		},
		{
			name:     "At-mention of canonical account",
			text:     "shoutout to @RedStone_DeFi for the fast support",
			author:   "randomuser",
			expected: true,
			reason:   "@-mention is a direct-mention phrase",
		},
		{
			name:     "Proper-noun spelling alone",
			text:     "RedStone keeps shipping",
			author:   "cryptofan",
			expected: true,
			reason:   "Exact capitalization is accepted without extra context",
		},
		{
			name:     "Lowercase topic with domain context",
			text:     "redstone price feeds are live on the new chain",
			author:   "chainwatcher",
			expected: true,
			reason:   "Lowercase form plus a context term includes",
		},
		{
			name:     "Lowercase topic without context",
			text:     "i love redstone so much",
			author:   "someone",
			expected: false,
			reason:   "Lowercase form alone is too ambiguous",
		},
		{
			name:     "No topic reference at all",
			text:     "what a beautiful morning",
			author:   "someone",
			expected: false,
			reason:   "Nothing matches, default exclude",
		},
		{
			name:     "Uppercase-shout topic without context",
			text:     "REDSTONE TO THE MOON",
			author:   "shouty",
			expected: false,
			reason:   "All-caps is neither the proper spelling nor context-qualified",
		},
		{
			name:     "Lowercase topic with token context",
			text:     "$red redstone looking strong this week",
			author:   "trader",
			expected: true,
			reason:   "Ticker counts as domain context",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := rules.Classify(tc.text, tc.author)
			assert.Equal(t, tc.expected, got, tc.reason)
		})
	}
}

func TestClassifyEmptyRules(t *testing.T) {
	var rules Rules
	assert.False(t, rules.Classify("anything at all", "anyone"))
}
