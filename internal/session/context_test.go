package session

import (
	"testing"

	"github.com/vivalab/interview-agent/internal/models"
)

func testQuestions() []models.Question {
	return []models.Question{
		{ID: 1, Text: "Q1", Rubric: []models.RubricItem{{Name: "a", MaxScore: 2}}},
		{ID: 2, Text: "Q2", Rubric: []models.RubricItem{{Name: "b", MaxScore: 2}}},
	}
}

func TestSetAnswer_UnknownQuestion(t *testing.T) {
	sess := New("default", testQuestions(), "")

	if err := sess.SetAnswer(99, "answer"); err == nil {
		t.Error("expected error for unknown question id")
	}
}

func TestSetAnswer_Overwrite(t *testing.T) {
	sess := New("default", testQuestions(), "")

	if err := sess.SetAnswer(1, "first take"); err != nil {
		t.Fatalf("SetAnswer failed: %v", err)
	}
	if err := sess.SetAnswer(1, "second take"); err != nil {
		t.Fatalf("SetAnswer failed: %v", err)
	}

	set := sess.Snapshot()
	if set[0].Answer.Text != "second take" {
		t.Errorf("expected overwrite, got %q", set[0].Answer.Text)
	}
}

func TestSnapshot_SentinelForMissingAnswers(t *testing.T) {
	sess := New("default", testQuestions(), "")
	sess.SetAnswer(1, "answered")

	set := sess.Snapshot()

	if len(set) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(set))
	}
	if set[0].Answer.Text != "answered" {
		t.Errorf("unexpected first answer: %q", set[0].Answer.Text)
	}
	if set[1].Answer.Text != models.NoAnswer {
		t.Errorf("expected sentinel for unanswered question, got %q", set[1].Answer.Text)
	}
}

func TestSnapshot_IsolatedFromLaterEdits(t *testing.T) {
	sess := New("default", testQuestions(), "")
	sess.SetAnswer(1, "original")

	set := sess.Snapshot()
	sess.SetAnswer(1, "edited after snapshot")

	if set[0].Answer.Text != "original" {
		t.Errorf("snapshot mutated by later edit: %q", set[0].Answer.Text)
	}
}

func TestEvaluationGuard(t *testing.T) {
	sess := New("default", testQuestions(), "")

	if !sess.BeginEvaluation() {
		t.Fatal("first BeginEvaluation should succeed")
	}
	if sess.BeginEvaluation() {
		t.Error("second BeginEvaluation should be rejected while in flight")
	}

	sess.EndEvaluation()
	if !sess.BeginEvaluation() {
		t.Error("BeginEvaluation should succeed again after EndEvaluation")
	}
}

func TestStore_PutGetDelete(t *testing.T) {
	store := NewStore()
	sess := New("default", testQuestions(), "")

	store.Put(sess)

	got, ok := store.Get(sess.ID)
	if !ok {
		t.Fatal("expected session found")
	}
	if got.ID != sess.ID {
		t.Errorf("expected %q, got %q", sess.ID, got.ID)
	}

	store.Delete(sess.ID)
	if _, ok := store.Get(sess.ID); ok {
		t.Error("expected session gone after delete")
	}
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore()

	if _, ok := store.Get("no-such-id"); ok {
		t.Error("expected miss for unknown id")
	}
}
