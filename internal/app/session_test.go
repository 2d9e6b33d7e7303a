package app_test

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"civil-quiz/internal/app"
	"civil-quiz/internal/domain"
)

func TestShuffleKeepsOptionsAndAnswer(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	set := mechanicsSet()
	for run := 0; run < 50; run++ {
		s, err := app.NewSession("s", "Mechanics", set, rnd, time.Now())
		if err != nil {
			t.Fatalf("new session: %v", err)
		}
		if s.Total() != len(set) {
			t.Fatalf("expected %d questions, got %d", len(set), s.Total())
		}
		for _, q := range s.Questions() {
			texts := make([]string, 0, len(q.Shuffled))
			correct := 0
			for _, opt := range q.Shuffled {
				texts = append(texts, opt.Text)
				if opt.Correct {
					correct++
				}
			}
			if correct != 1 {
				t.Fatalf("expected exactly one correct option, got %d", correct)
			}
			want := append([]string(nil), q.Options...)
			sort.Strings(texts)
			sort.Strings(want)
			if strings.Join(texts, "|") != strings.Join(want, "|") {
				t.Fatalf("options changed: %v vs %v", texts, want)
			}
			if q.Shuffled[q.CorrectIndex()].Text != q.Options[q.Answer] {
				t.Fatalf("correct option moved to the wrong text")
			}
		}
	}
}

func TestShuffleIsUniform(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	set := []domain.Question{{Text: "q", Options: []string{"a", "b", "c"}, Answer: 0}}
	counts := map[string]int{}
	const runs = 6000
	for i := 0; i < runs; i++ {
		s, err := app.NewSession("s", "t", set, rnd, time.Now())
		if err != nil {
			t.Fatalf("new session: %v", err)
		}
		order := ""
		for _, opt := range s.Questions()[0].Shuffled {
			order += opt.Text
		}
		counts[order]++
	}
	if len(counts) != 6 {
		t.Fatalf("expected all 6 permutations, got %v", counts)
	}
	for perm, n := range counts {
		if n < 800 || n > 1200 {
			t.Fatalf("permutation %s seen %d times out of %d", perm, n, runs)
		}
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	s, err := app.NewSession("s", "Mechanics", mechanicsSet(), keepOrder{}, time.Now())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	first, err := s.Check(0)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !first.Changed || !first.Correct || s.Score() != 1 {
		t.Fatalf("expected correct first answer, got %+v score=%d", first, s.Score())
	}
	again, err := s.Check(2)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if again.Changed || s.Score() != 1 || len(s.Mistakes()) != 0 {
		t.Fatalf("second answer must not change state: %+v score=%d", again, s.Score())
	}
	if first.Explanation != "Force per area." {
		t.Fatalf("expected explanation, got %q", first.Explanation)
	}
}

func TestWrongAnswerRecordsMistake(t *testing.T) {
	s, _ := app.NewSession("s", "Mechanics", mechanicsSet(), keepOrder{}, time.Now())
	res, err := s.Check(3)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Correct || res.CorrectIndex != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	m := s.Mistakes()
	if len(m) != 1 || m[0].Selected != "Watt" || m[0].Correct != "Pascal" {
		t.Fatalf("unexpected mistakes %+v", m)
	}
}

func TestNextBounds(t *testing.T) {
	s, _ := app.NewSession("s", "Mechanics", mechanicsSet(), keepOrder{}, time.Now())

	if _, err := s.Next(); !errors.Is(err, domain.ErrQuestionUnanswered) {
		t.Fatalf("expected ErrQuestionUnanswered, got %v", err)
	}
	if _, err := s.Check(9); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := s.Check(0); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		done, err := s.Next()
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if done != (i == 1) {
			t.Fatalf("next %d: done=%v", i, done)
		}
	}
	if s.Index() != s.Total() {
		t.Fatalf("index %d should stop at total %d", s.Index(), s.Total())
	}
	if done, err := s.Next(); !done || err != nil {
		t.Fatalf("next after the end: done=%v err=%v", done, err)
	}
	if s.Index() > s.Total() {
		t.Fatalf("index exceeded total")
	}
	if _, err := s.Check(0); !errors.Is(err, domain.ErrQuizFinished) {
		t.Fatalf("expected ErrQuizFinished, got %v", err)
	}
}

func TestEmptySessionRejected(t *testing.T) {
	if _, err := app.NewSession("s", "t", nil, keepOrder{}, time.Now()); !errors.Is(err, domain.ErrEmptyQuiz) {
		t.Fatalf("expected ErrEmptyQuiz, got %v", err)
	}
}

func TestAccuracy(t *testing.T) {
	cases := []struct{ score, total, want int }{
		{3, 4, 75},
		{0, 0, 0},
		{5, 5, 100},
		{1, 3, 33},
		{2, 3, 67},
	}
	for _, c := range cases {
		if got := app.Accuracy(c.score, c.total); got != c.want {
			t.Fatalf("Accuracy(%d,%d) = %d, want %d", c.score, c.total, got, c.want)
		}
	}
}
