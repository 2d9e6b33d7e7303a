package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"civil-quiz/internal/app"
	"civil-quiz/internal/domain"
)

var errBadInput = errors.New("not a test number")

// Runner reads commands line by line and drives the controller according to
// the current view.
type Runner struct {
	controller *app.Controller
	view       *View
	in         *bufio.Scanner
}

func NewRunner(controller *app.Controller, view *View, in io.Reader) *Runner {
	return &Runner{controller: controller, view: view, in: bufio.NewScanner(in)}
}

// Run boots the controller and loops until the input ends or the user quits.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.controller.Boot(ctx); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap := r.controller.Snapshot()
		var (
			quit bool
			err  error
		)
		switch snap.View {
		case domain.ViewLogin:
			quit, err = r.login(ctx)
		case domain.ViewDashboard:
			quit, err = r.dashboard(ctx)
		case domain.ViewQuiz:
			quit, err = r.quiz(ctx, snap)
		case domain.ViewResult:
			quit, err = r.result(ctx)
		default:
			return fmt.Errorf("unknown view %q", snap.View)
		}
		if quit {
			return nil
		}
		if err != nil && usage(err) {
			r.view.Alert(err.Error())
		}
	}
}

func (r *Runner) login(ctx context.Context) (bool, error) {
	name, ok := r.prompt("Name: ")
	if !ok {
		return true, nil
	}
	qual, ok := r.prompt("Qualification: ")
	if !ok {
		return true, nil
	}
	code, ok := r.prompt("Unique Code: ")
	if !ok {
		return true, nil
	}
	return false, r.controller.Login(ctx, name, qual, code)
}

func (r *Runner) dashboard(ctx context.Context) (bool, error) {
	line, ok := r.prompt("Test number (r = reload, logout, q = quit): ")
	if !ok || line == "q" {
		return true, nil
	}
	switch line {
	case "r", "":
		return false, r.controller.Dashboard(ctx)
	case "logout":
		return false, r.controller.Logout(ctx)
	}
	id, err := strconv.Atoi(line)
	if err != nil {
		return false, fmt.Errorf("%w: %s", errBadInput, line)
	}
	return false, r.controller.Select(ctx, id)
}

func (r *Runner) quiz(ctx context.Context, snap app.Snapshot) (bool, error) {
	if snap.Answered {
		line, ok := r.prompt("Enter for next (q = quit): ")
		if !ok || line == "q" {
			return true, nil
		}
		return false, r.controller.Next(ctx)
	}
	line, ok := r.prompt("Your answer: ")
	if !ok || line == "q" {
		return true, nil
	}
	if line == "" {
		// the countdown may have finished the attempt meanwhile
		return false, nil
	}
	return false, r.controller.Answer(optionIndex(line))
}

func (r *Runner) result(ctx context.Context) (bool, error) {
	line, ok := r.prompt("Enter for dashboard (q = quit): ")
	if !ok || line == "q" {
		return true, nil
	}
	return false, r.controller.Dashboard(ctx)
}

func (r *Runner) prompt(label string) (string, bool) {
	r.view.printf("%s", label)
	if !r.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

// optionIndex maps "A"/"b" or "1" to a display position; anything else
// yields -1, which the session rejects.
func optionIndex(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n - 1
	}
	if len(s) == 1 {
		c := strings.ToUpper(s)[0]
		if c >= 'A' && c <= 'Z' {
			return int(c - 'A')
		}
	}
	return -1
}

// usage reports errors caused by input the user should correct. Everything
// else has already been shown by the controller.
func usage(err error) bool {
	for _, target := range []error{
		errBadInput,
		domain.ErrNoActiveQuiz,
		domain.ErrOptionNotFound,
		domain.ErrQuestionUnanswered,
		domain.ErrQuizFinished,
		domain.ErrQuizNotFound,
		domain.ErrNotLoggedIn,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
