// Package classify decides whether a tweet is actually about the tracked
// topic. Search queries are broad by design; this is the second, stricter
// gate that runs before anything is written to the store.
package classify

import "strings"

// Rules holds the full rule configuration for the classifier. A Rules value
// is immutable after construction, so a single instance is safe to share
// between the ingestion cycle and ad-hoc lookups.
type Rules struct {
	// CanonicalHandle is the project's own account. Its tweets are always
	// relevant, even when they trip the denylist.
	CanonicalHandle string

	// Denylist terms mark off-topic content: unrelated domains plus
	// homographs of the topic name (e.g. the Minecraft "redstone").
	Denylist []string

	// MentionPhrases are high-confidence direct references to the topic.
	MentionPhrases []string

	// TopicProper is the topic's exact proper-noun spelling; a case-sensitive
	// match is accepted on its own.
	TopicProper string

	// TopicLower is the all-lowercase topic name. It is too ambiguous to
	// accept alone and requires one of ContextTerms alongside it.
	TopicLower string

	// ContextTerms are domain words that disambiguate TopicLower.
	ContextTerms []string
}

// DefaultRules returns the rule set for tracking RedStone oracle mentions.
func DefaultRules() Rules {
	return Rules{
		CanonicalHandle: "redstone_defi",
		Denylist: []string{
			"murder", "killed", "death", "minecraft", "gaming", "game",
			"redstone dust", "redstone torch",
		},
		MentionPhrases: []string{
			"@redstone_defi", "redstone oracle", "redstone oracles", "#redstone",
		},
		TopicProper: "RedStone",
		TopicLower:  "redstone",
		ContextTerms: []string{
			"oracle", "oracles", "defi", "crypto", "blockchain", "web3",
			"price feed", "data feed", "token", "$red",
		},
	}
}

// Classify reports whether a tweet should be ingested. Rules apply in fixed
// precedence order, first match wins:
//
//  1. canonical account: always include
//  2. denylist term: exclude
//  3. direct-mention phrase: include
//  4. proper-noun spelling (case-sensitive): include
//  5. lowercase topic name plus a context term: include
//  6. otherwise exclude
//
// The canonical-account check deliberately precedes the denylist so the
// project's own tweets are never filtered out.
func (r Rules) Classify(text, authorHandle string) bool {
	if strings.EqualFold(authorHandle, r.CanonicalHandle) {
		return true
	}

	lower := strings.ToLower(text)

	for _, term := range r.Denylist {
		if strings.Contains(lower, strings.ToLower(term)) {
			return false
		}
	}

	for _, phrase := range r.MentionPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}

	if r.TopicProper != "" && strings.Contains(text, r.TopicProper) {
		return true
	}

	if r.TopicLower != "" && strings.Contains(lower, r.TopicLower) {
		for _, term := range r.ContextTerms {
			if strings.Contains(lower, strings.ToLower(term)) {
				return true
			}
		}
	}

	return false
}
