package randomize

import (
	"github.com/studytrails/trails-service/internal/models"
)

// Type-specific adapters. Every function here is pure: it takes a
// content value and a seed, constructs a fresh generator, and returns
// a reordered copy. Nothing is validated and nothing panics; malformed
// input degrades to sentinel values the caller must handle.

type indexedOption struct {
	originalIndex int
	text          string
}

// SingleChoice shuffles the option list and remaps CorrectAnswer to
// the new position of the originally correct option. If the original
// index cannot be found after the shuffle (out-of-range input), the
// returned CorrectAnswer is -1.
func SingleChoice(c models.SingleChoiceContent, seed uint32) models.SingleChoiceContent {
	pairs := make([]indexedOption, len(c.Options))
	for i, opt := range c.Options {
		pairs[i] = indexedOption{originalIndex: i, text: opt}
	}
	shuffled := Shuffle(pairs, Mulberry32(seed))

	out := c
	out.Options = make([]string, len(shuffled))
	out.CorrectAnswer = -1
	for i, p := range shuffled {
		out.Options[i] = p.text
		if p.originalIndex == c.CorrectAnswer {
			out.CorrectAnswer = i
		}
	}
	return out
}

// Matching shuffles the left and right columns from one generator:
// the left column consumes the head of the stream and the right
// column continues it, so equal-length columns never share a
// permutation and authored-aligned pairs drift apart. CorrectPairs is
// keyed by item ids, so it survives any reordering and is returned
// untouched.
func Matching(c models.MatchingContent, seed uint32) models.MatchingContent {
	random := Mulberry32(seed)
	out := c
	out.LeftItems = Shuffle(c.LeftItems, random)
	out.RightItems = Shuffle(c.RightItems, random)
	return out
}

// Ordering shuffles only the displayed items. CorrectOrder is the
// answer key and must never be permuted.
func Ordering(c models.OrderingContent, seed uint32) models.OrderingContent {
	out := c
	out.Items = Shuffle(c.Items, Mulberry32(seed))
	return out
}

// TrueFalse shuffles the statement list. Answers are keyed by
// statement id.
func TrueFalse(c models.TrueFalseContent, seed uint32) models.TrueFalseContent {
	out := c
	out.Statements = Shuffle(c.Statements, Mulberry32(seed))
	return out
}

// CaseAnalysis shuffles the option list. CorrectIDs is id-keyed and
// returned untouched.
func CaseAnalysis(c models.CaseAnalysisContent, seed uint32) models.CaseAnalysisContent {
	out := c
	out.Options = Shuffle(c.Options, Mulberry32(seed))
	return out
}

// FillBlank shuffles each blank's option list under its own sub-seed
// so sibling blanks with identical options usually end up in different
// orders. The sub-seed is baseSeed + HashString(blankID) + blankIndex
// with wrapping 32-bit addition. Two different id/index pairs can in
// principle land on the same sub-seed (adjacent ids one apart cancel
// against the index term); that collision is part of the scheme and is
// kept for reproducibility with orders already seen by students.
func FillBlank(c models.FillBlankContent, seed uint32) models.FillBlankContent {
	out := c
	out.Blanks = make([]models.Blank, len(c.Blanks))
	for i, b := range c.Blanks {
		sub := seed + HashString(b.ID) + uint32(i)
		nb := b
		nb.Options = Shuffle(b.Options, Mulberry32(sub))
		out.Blanks[i] = nb
	}
	return out
}

// Questions returns the module's questions in the per-student order.
// The caller passes the seed from ModuleSeed.
func Questions(qs []models.QuizQuestion, seed uint32) []models.QuizQuestion {
	return Shuffle(qs, Mulberry32(seed))
}
