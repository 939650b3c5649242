package embedding

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// BERT special token ids used by MiniLM-family models.
const (
	clsTokenID = 101
	sepTokenID = 102
	padTokenID = 0

	vocabSize = 30522
)

// Tokenizer maps text to fixed-length input id sequences. It is a hashed
// whitespace tokenizer, not a real WordPiece vocabulary: ids are stable across
// runs, which is all the vector index needs, but they will not match a
// pretrained vocabulary exactly.
type Tokenizer struct {
	maxTokens int
}

// NewTokenizer returns a tokenizer producing sequences of maxTokens ids.
func NewTokenizer(maxTokens int) *Tokenizer {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &Tokenizer{maxTokens: maxTokens}
}

// Tokenize returns input ids and an attention mask of length maxTokens.
func (t *Tokenizer) Tokenize(text string) (ids []int64, mask []int64) {
	words := splitWords(text)

	ids = make([]int64, t.maxTokens)
	mask = make([]int64, t.maxTokens)

	ids[0] = clsTokenID
	mask[0] = 1

	pos := 1
	for _, word := range words {
		if pos >= t.maxTokens-1 {
			break
		}
		ids[pos] = hashToken(word)
		mask[pos] = 1
		pos++
	}

	ids[pos] = sepTokenID
	mask[pos] = 1

	return ids, mask
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// hashToken maps a word into the non-special region of the vocabulary.
func hashToken(word string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(word))
	return int64(h.Sum32()%(vocabSize-1000)) + 1000
}
