package classifier

import (
	"sort"
	"strings"
)

const (
	// DefaultFilters are the characters replaced by spaces before splitting.
	DefaultFilters = "!\"#$%&()*+,-./:;<=>?@[\\]^_`{|}~\t\n"
	// DefaultOOVToken is the out-of-vocabulary token, always at index 1.
	DefaultOOVToken = "<unk>"
)

// Tokenizer maps words to frequency-ranked integer ids. Index 0 is reserved
// for padding and index 1 for unknown words.
type Tokenizer struct {
	WordIndex map[string]int `json:"word_index"`
	OOVToken  string         `json:"oov_token"`
	Filters   string         `json:"filters"`
	Lower     bool           `json:"lower"`
}

// FitTokenizer builds a tokenizer from texts. Words are ranked by count,
// ties keep first-seen order.
func FitTokenizer(texts []string) *Tokenizer {
	t := &Tokenizer{OOVToken: DefaultOOVToken, Filters: DefaultFilters, Lower: true}

	counts := map[string]int{}
	var order []string
	for _, text := range texts {
		for _, w := range t.words(text) {
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	t.WordIndex = make(map[string]int, len(order)+1)
	t.WordIndex[t.OOVToken] = 1
	next := 2
	for _, w := range order {
		if w == t.OOVToken {
			continue
		}
		t.WordIndex[w] = next
		next++
	}
	return t
}

// VocabSize is one more than the highest word id.
func (t *Tokenizer) VocabSize() int {
	maxID := 0
	for _, id := range t.WordIndex {
		maxID = max(maxID, id)
	}
	return maxID + 1
}

// Sequence returns the word ids of text; unknown words map to the OOV id.
func (t *Tokenizer) Sequence(text string) []int {
	oov := t.WordIndex[t.OOVToken]
	var out []int
	for _, w := range t.words(text) {
		if id, ok := t.WordIndex[w]; ok {
			out = append(out, id)
		} else if oov > 0 {
			out = append(out, oov)
		}
	}
	return out
}

// Encode returns a sequence of exactly maxLen ids, zero-padded and truncated
// at the front.
func (t *Tokenizer) Encode(text string, maxLen int) []int {
	seq := t.Sequence(text)
	if len(seq) > maxLen {
		seq = seq[len(seq)-maxLen:]
	}
	out := make([]int, maxLen)
	copy(out[maxLen-len(seq):], seq)
	return out
}

func (t *Tokenizer) words(text string) []string {
	if t.Lower {
		text = strings.ToLower(text)
	}
	text = strings.Map(func(r rune) rune {
		if strings.ContainsRune(t.Filters, r) {
			return ' '
		}
		return r
	}, text)
	return strings.Fields(text)
}
