package filter

import "unicode/utf8"

// byteToRuneIndex maps every byte offset in s to the code-point (rune)
// index of the UTF-8 sequence containing it, plus one extra trailing
// entry equal to the total rune count. regexp.Regexp works in byte
// offsets; spec.md requires candidate spans in code-point offsets, so
// every regex-backed filter runs its matches through this table before
// constructing a span.Candidate.
func byteToRuneIndex(s string) []int {
	idx := make([]int, len(s)+1)
	pos := 0
	runeCount := 0
	for _, r := range s {
		size := utf8.RuneLen(r)
		for b := 0; b < size; b++ {
			idx[pos+b] = runeCount
		}
		pos += size
		runeCount++
	}
	idx[len(s)] = runeCount
	return idx
}
