package utils

import (
	"strings"
)

// Local parts outside these bounds are rejected outright.
const (
	minLocalPartLen = 3
	maxLocalPartLen = 64
)

// Score weights per heuristic.
const (
	weightRepetitive = 30
	weightHighRatio  = 25
	weightSuspicious = 20
	weightExcessive  = 15
	weightVariations = 10
	maxSpamScore     = 100
)

const (
	repetitionRatio   = 0.4
	excessiveRatio    = 0.5
	minDiversityRatio = 0.3
)

// IsSpamEmail reports whether email looks bot generated. Addresses without a
// local part or domain are left to the address validator and reported as clean.
func IsSpamEmail(email string) bool {
	local, domain := splitEmail(email)
	if len(local) == 0 || domain == "" {
		return false
	}

	switch {
	case hasRepetitivePattern(local):
		return true
	case hasHighRepetitionRatio(local):
		return true
	case hasSuspiciousSequence(local):
		return true
	case len(local) < minLocalPartLen || len(local) > maxLocalPartLen:
		return true
	case hasExcessiveSameCharacter(local):
		return true
	case hasPatternVariations(local):
		return true
	}
	return false
}

// SpamScore rates email from 0 (clean) to 100.
func SpamScore(email string) int {
	local, _ := splitEmail(email)
	if len(local) == 0 {
		return 0
	}

	score := 0
	if hasRepetitivePattern(local) {
		score += weightRepetitive
	}
	if hasHighRepetitionRatio(local) {
		score += weightHighRatio
	}
	if hasSuspiciousSequence(local) {
		score += weightSuspicious
	}
	if hasExcessiveSameCharacter(local) {
		score += weightExcessive
	}
	if hasPatternVariations(local) {
		score += weightVariations
	}
	return min(score, maxSpamScore)
}

func splitEmail(email string) ([]rune, string) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(email)), "@")
	domain := ""
	if len(parts) > 1 {
		domain = parts[1]
	}
	return []rune(parts[0]), domain
}

// hasRepetitivePattern matches three or more consecutive identical characters.
func hasRepetitivePattern(s []rune) bool {
	for i := 0; i+2 < len(s); i++ {
		if isTriple(s, i) {
			return true
		}
	}
	return false
}

func hasHighRepetitionRatio(s []rune) bool {
	if len(s) < 5 {
		return false
	}
	return float64(maxCharCount(s))/float64(len(s)) > repetitionRatio
}

func hasSuspiciousSequence(s []rune) bool {
	if len(s) < 6 {
		return false
	}

	// two separate runs of three, e.g. "aaabbb" or "aaaaaa"
	for i := 0; i+2 < len(s); i++ {
		if !isTriple(s, i) {
			continue
		}
		for j := i + 3; j+2 < len(s); j++ {
			if isTriple(s, j) {
				return true
			}
		}
	}

	// one character coming back after an alphanumeric gap, e.g. "aaaxaa"
	for i := 0; i+2 < len(s); i++ {
		if !isTriple(s, i) {
			continue
		}
		for _, end := range runEnds(s, i) {
			for k := end; k+1 < len(s); k++ {
				if k > end && !isAlnum(s[k-1]) {
					break
				}
				if s[k] == s[i] && s[k+1] == s[i] {
					return true
				}
			}
		}
	}

	unique := make(map[rune]struct{}, len(s))
	for _, r := range s {
		unique[r] = struct{}{}
	}
	return len(s) > 8 && float64(len(unique))/float64(len(s)) < minDiversityRatio
}

func hasExcessiveSameCharacter(s []rune) bool {
	if len(s) < 4 {
		return false
	}
	return float64(maxCharCount(s))/float64(len(s)) > excessiveRatio
}

func hasPatternVariations(s []rune) bool {
	if len(s) < 8 {
		return false
	}

	// three runs separated only by letters and digits, e.g. "aaabbbccc"
	for i := 0; i+2 < len(s); i++ {
		if isTriple(s, i) && chainedRuns(s, i, 3) {
			return true
		}
	}

	// a repeating block that tiles the whole local part, e.g. "abcabcabc";
	// period 2 is strict alternation, e.g. "abababab"
	for period := 2; period <= len(s)/2; period++ {
		if len(s)%period == 0 && tiles(s, period) {
			return true
		}
	}

	groups, count := 0, 0
	var current rune
	for i, r := range s {
		if i > 0 && r == current {
			count++
			if count == 3 {
				groups++
			}
			continue
		}
		current, count = r, 1
	}
	return groups >= 3
}

// chainedRuns reports whether, starting with the run at i, `left` runs of three
// identical characters follow each other with only [a-z0-9] between them.
func chainedRuns(s []rune, i, left int) bool {
	if left == 1 {
		return true
	}
	for _, end := range runEnds(s, i) {
		for j := end; j+2 < len(s); j++ {
			if j > end && !isAlnum(s[j-1]) {
				break
			}
			if isTriple(s, j) && chainedRuns(s, j, left-1) {
				return true
			}
		}
	}
	return false
}

// runEnds lists every index a run of three or more starting at i may stop at.
func runEnds(s []rune, i int) []int {
	ends := []int{i + 3}
	for e := i + 3; e < len(s) && s[e] == s[i]; e++ {
		ends = append(ends, e+1)
	}
	return ends
}

func tiles(s []rune, period int) bool {
	for k := period; k < len(s); k++ {
		if s[k] != s[k%period] {
			return false
		}
	}
	return true
}

func isTriple(s []rune, i int) bool {
	return i+2 < len(s) && s[i] == s[i+1] && s[i] == s[i+2]
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func maxCharCount(s []rune) int {
	counts := make(map[rune]int, len(s))
	highest := 0
	for _, r := range s {
		counts[r]++
		highest = max(highest, counts[r])
	}
	return highest
}
