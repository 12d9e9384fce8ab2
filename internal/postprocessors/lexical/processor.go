// Package lexical tokenises chunk text for keyword search.
package lexical

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// MinTokenLength is the shortest token kept by Tokenize.
const MinTokenLength = domain.DefaultMinTokenLength

// stopwords is the fixed English stopword set removed during tokenisation.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a about above after again against all am an and any are as at
		be because been before being below between both but by
		can cannot could did do does doing down during each few for from further
		had has have having he her here hers herself him himself his how
		i if in into is it its itself just me more most my myself
		no nor not now of off on once only or other our ours ourselves out over own
		same she should so some such than that the their theirs them themselves
		then there these they this those through to too under until up very
		was we were what when where which while who whom why will with would
		you your yours yourself yourselves`) {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether the lowercased word is a stopword.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}

// Tokenize lowercases text, removes every rune that is not a letter, digit
// or whitespace, splits on whitespace and drops short tokens and stopwords.
// Tokenize is pure: joining its output and tokenising again yields the same
// tokens.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, text)

	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < MinTokenLength || IsStopword(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Text builds the string that is tokenised for a chunk: the file name and
// relative path are included so path terms match.
func Text(doc *domain.Document, chunkContent string) string {
	return doc.FileName + " " + doc.RelativePath + " " + chunkContent
}

// Processor stamps lexical tokens onto chunks produced earlier in the
// pipeline. It implements the PostProcessor interface.
type Processor struct{}

// New creates a new lexical processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "lexical"
}

// Process fills Tokens and TokenText on each chunk.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		tokens := Tokenize(Text(doc, chunks[i].Content))
		chunks[i].Tokens = tokens
		chunks[i].TokenText = strings.Join(tokens, " ")
	}
	return chunks, nil
}
