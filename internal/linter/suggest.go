package linter

import "github.com/antzucaro/matchr"

// suggestThreshold is the minimum Jaro-Winkler similarity a candidate must
// reach before it is offered as a "did you mean" suggestion; below this,
// two names are considered unrelated rather than a likely typo.
const suggestThreshold = 0.75

// suggest returns the candidate closest to name by Jaro-Winkler similarity,
// or "" if none clears suggestThreshold. candidates is scanned in order so
// ties resolve deterministically.
func suggest(name string, candidates []string) string {
	best := ""
	bestScore := suggestThreshold
	for _, c := range candidates {
		if c == name {
			continue
		}
		if score := matchr.JaroWinkler(name, c, false); score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

func withSuggestion(message, got string, candidates []string) string {
	if s := suggest(got, candidates); s != "" {
		return message + " (did you mean \"" + s + "\"?)"
	}
	return message
}
