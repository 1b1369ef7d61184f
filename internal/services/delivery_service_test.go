package services

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/randomize"
)

func TestShuffleContent_Deterministic(t *testing.T) {
	raw := json.RawMessage(`{"options":["alpha","beta","gamma","delta","epsilon"],"correct_answer":1}`)
	seed := randomize.QuestionSeed("student-1", "42")

	first, err := shuffleContent(models.SingleChoice, raw, seed)
	if err != nil {
		t.Fatalf("shuffleContent() error = %v", err)
	}
	second, err := shuffleContent(models.SingleChoice, raw, seed)
	if err != nil {
		t.Fatalf("shuffleContent() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("same seed must produce the same rendering:\n%s\n%s", first, second)
	}

	otherSeed := randomize.QuestionSeed("student-2", "42")
	other, err := shuffleContent(models.SingleChoice, raw, otherSeed)
	if err != nil {
		t.Fatalf("shuffleContent() error = %v", err)
	}
	// Different students usually see different orders. Not guaranteed
	// for every seed pair, but this fixed pair is known to differ.
	if bytes.Equal(first, other) {
		t.Logf("students share an ordering for this fixture; seed pair collided")
	}
}

func TestShuffleContent_SingleChoiceRemapsCorrectIndex(t *testing.T) {
	raw := json.RawMessage(`{"options":["a","b","c","d"],"correct_answer":2}`)

	shuffled, err := shuffleContent(models.SingleChoice, raw, randomize.QuestionSeed("student-1", "7"))
	if err != nil {
		t.Fatalf("shuffleContent() error = %v", err)
	}

	var c models.SingleChoiceContent
	if err := json.Unmarshal(shuffled, &c); err != nil {
		t.Fatalf("unmarshal shuffled content: %v", err)
	}
	if len(c.Options) != 4 {
		t.Fatalf("expected 4 options, got %d", len(c.Options))
	}
	if c.CorrectAnswer < 0 || c.CorrectAnswer >= len(c.Options) {
		t.Fatalf("remapped index %d out of range", c.CorrectAnswer)
	}
	if c.Options[c.CorrectAnswer] != "c" {
		t.Errorf("remapped index points at %q, want %q", c.Options[c.CorrectAnswer], "c")
	}
}

func TestShuffleContent_OrderingKeepsCorrectOrder(t *testing.T) {
	raw := json.RawMessage(`{
		"items":[{"id":"i1","text":"one"},{"id":"i2","text":"two"},{"id":"i3","text":"three"}],
		"correct_order":["i1","i2","i3"]}`)

	shuffled, err := shuffleContent(models.Ordering, raw, randomize.QuestionSeed("student-1", "9"))
	if err != nil {
		t.Fatalf("shuffleContent() error = %v", err)
	}

	var c models.OrderingContent
	if err := json.Unmarshal(shuffled, &c); err != nil {
		t.Fatalf("unmarshal shuffled content: %v", err)
	}
	want := []string{"i1", "i2", "i3"}
	for i, id := range want {
		if c.CorrectOrder[i] != id {
			t.Fatalf("correct_order changed: got %v, want %v", c.CorrectOrder, want)
		}
	}
}

// The rendered payload is what goes over the wire to students, so the
// answer keys must be structurally absent, not just zeroed.
func TestStripContent_NoAnswerLeaks(t *testing.T) {
	tests := []struct {
		name      string
		qType     models.QuestionType
		content   string
		forbidden []string
	}{
		{
			name:      "single choice",
			qType:     models.SingleChoice,
			content:   `{"options":["a","b"],"correct_answer":1}`,
			forbidden: []string{"correct_answer"},
		},
		{
			name:      "true false",
			qType:     models.TrueFalse,
			content:   `{"statements":[{"id":"s1","text":"x","is_true":true}]}`,
			forbidden: []string{"is_true"},
		},
		{
			name:      "matching",
			qType:     models.Matching,
			content:   `{"left_items":[{"id":"l1","text":"a"}],"right_items":[{"id":"r1","text":"b"}],"correct_pairs":[{"left_id":"l1","right_id":"r1"}]}`,
			forbidden: []string{"correct_pairs"},
		},
		{
			name:      "ordering",
			qType:     models.Ordering,
			content:   `{"items":[{"id":"i1","text":"a"},{"id":"i2","text":"b"}],"correct_order":["i1","i2"]}`,
			forbidden: []string{"correct_order"},
		},
		{
			name:      "fill blank",
			qType:     models.FillBlank,
			content:   `{"template":"x {{b1}} y","blanks":[{"id":"b1","options":["p","q"],"answer":"p"}]}`,
			forbidden: []string{"answer"},
		},
		{
			name:      "case analysis",
			qType:     models.CaseAnalysis,
			content:   `{"scenario":"s","options":[{"id":"o1","text":"a"}],"correct_ids":["o1"]}`,
			forbidden: []string{"correct_ids"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stripped, err := stripContent(tt.qType, json.RawMessage(tt.content))
			if err != nil {
				t.Fatalf("stripContent() error = %v", err)
			}
			payload := string(stripped)
			for _, key := range tt.forbidden {
				if strings.Contains(payload, `"`+key+`"`) {
					t.Errorf("rendered payload leaks %q: %s", key, payload)
				}
			}
		})
	}
}

func TestStripContent_UnknownType(t *testing.T) {
	if _, err := stripContent(models.QuestionType("essay"), json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for unknown question type")
	}
}
