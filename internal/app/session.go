package app

import (
	"math"
	"math/rand"
	"time"

	"civil-quiz/internal/domain"
)

// QuizDuration is the time allowed for one attempt.
const QuizDuration = 45 * time.Minute

// Randomizer is satisfied by *rand.Rand.
type Randomizer interface {
	Intn(n int) int
}

// NewRandomizer returns a time-seeded source for production sessions.
func NewRandomizer() Randomizer {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// shuffle applies a Fisher-Yates pass so every permutation is equally likely.
func shuffle(n int, rnd Randomizer, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		swap(i, j)
	}
}

// SessionQuestion is a question together with its fixed option permutation.
type SessionQuestion struct {
	domain.Question
	Shuffled []domain.ShuffledOption
}

// CorrectIndex is the display position of the correct option.
func (q SessionQuestion) CorrectIndex() int {
	for i, opt := range q.Shuffled {
		if opt.Correct {
			return i
		}
	}
	return -1
}

// CheckResult describes the outcome of answering the current question.
type CheckResult struct {
	// Changed is false when the question had already been answered.
	Changed      bool
	Correct      bool
	Selected     int
	CorrectIndex int
	Explanation  string
}

// Session is one quiz attempt. It is not safe for concurrent use; the
// controller serializes access.
type Session struct {
	id        string
	topic     string
	questions []SessionQuestion
	current   int
	score     int
	answered  bool
	mistakes  []domain.Mistake
	startedAt time.Time
}

// NewSession shuffles the options of every question, then the questions
// themselves.
func NewSession(id, topic string, set []domain.Question, rnd Randomizer, now time.Time) (*Session, error) {
	if len(set) == 0 {
		return nil, domain.ErrEmptyQuiz
	}

	questions := make([]SessionQuestion, len(set))
	for i, q := range set {
		opts := make([]domain.ShuffledOption, len(q.Options))
		for j, text := range q.Options {
			opts[j] = domain.ShuffledOption{Text: text, Correct: j == q.Answer}
		}
		shuffle(len(opts), rnd, func(a, b int) { opts[a], opts[b] = opts[b], opts[a] })
		questions[i] = SessionQuestion{Question: q, Shuffled: opts}
	}
	shuffle(len(questions), rnd, func(a, b int) { questions[a], questions[b] = questions[b], questions[a] })

	return &Session{
		id:        id,
		topic:     topic,
		questions: questions,
		mistakes:  []domain.Mistake{},
		startedAt: now,
	}, nil
}

func (s *Session) ID() string                   { return s.id }
func (s *Session) Topic() string                { return s.topic }
func (s *Session) Total() int                   { return len(s.questions) }
func (s *Session) Index() int                   { return s.current }
func (s *Session) Score() int                   { return s.score }
func (s *Session) Answered() bool               { return s.answered }
func (s *Session) StartedAt() time.Time         { return s.startedAt }
func (s *Session) Finished() bool               { return s.current >= len(s.questions) }
func (s *Session) Questions() []SessionQuestion { return s.questions }

// Mistakes returns a copy of the wrong answers collected so far.
func (s *Session) Mistakes() []domain.Mistake {
	out := make([]domain.Mistake, len(s.mistakes))
	copy(out, s.mistakes)
	return out
}

// Current returns the question being shown.
func (s *Session) Current() (SessionQuestion, bool) {
	if s.Finished() {
		return SessionQuestion{}, false
	}
	return s.questions[s.current], true
}

// Check answers the current question with the option at display position
// selected. A second call for the same question changes nothing.
func (s *Session) Check(selected int) (CheckResult, error) {
	q, ok := s.Current()
	if !ok {
		return CheckResult{}, domain.ErrQuizFinished
	}
	if selected < 0 || selected >= len(q.Shuffled) {
		return CheckResult{}, domain.ErrOptionNotFound
	}

	result := CheckResult{
		Selected:     selected,
		CorrectIndex: q.CorrectIndex(),
		Explanation:  q.Explanation,
	}
	if s.answered {
		return result, nil
	}

	s.answered = true
	result.Changed = true
	result.Correct = q.Shuffled[selected].Correct
	if result.Correct {
		s.score++
	} else {
		correctText := ""
		if result.CorrectIndex >= 0 {
			correctText = q.Shuffled[result.CorrectIndex].Text
		}
		s.mistakes = append(s.mistakes, domain.Mistake{
			Question: q.Text,
			Selected: q.Shuffled[selected].Text,
			Correct:  correctText,
		})
	}
	return result, nil
}

// Next advances past an answered question and reports whether the session
// has run out of questions. The index never exceeds Total.
func (s *Session) Next() (bool, error) {
	if s.Finished() {
		return true, nil
	}
	if !s.answered {
		return false, domain.ErrQuestionUnanswered
	}
	s.current++
	s.answered = false
	return s.Finished(), nil
}

// Accuracy is the rounded percentage of correct answers.
func Accuracy(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}
