package capture

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

// LineReviewer prompts the user for a keep/drop decision on each proposed
// line. Answering q (or hitting Ctrl-C / Ctrl-D) cancels the whole
// operation.
type LineReviewer struct {
	// Prompt overrides the default prompt when non-empty.
	Prompt string
}

// Review implements Reviewer over an interactive terminal.
func (r *LineReviewer) Review(lines []string) ([]bool, error) {
	prompt := r.Prompt
	if prompt == "" {
		prompt = "keep? [Y/n/q] "
	}

	rl, err := readline.New(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to open review prompt: %w", err)
	}
	defer rl.Close()

	cyan := color.New(color.FgCyan).SprintFunc()
	keep := make([]bool, len(lines))
	for i, line := range lines {
		fmt.Printf("%s\n", cyan(line))

		answer, err := rl.Readline()
		if err != nil {
			// Ctrl-C / Ctrl-D abandon the operation.
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil, ErrReviewCancelled
			}
			return nil, fmt.Errorf("reading review answer: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "", "y", "yes":
			keep[i] = true
		case "n", "no":
			keep[i] = false
		case "q", "quit":
			return nil, ErrReviewCancelled
		default:
			keep[i] = true
		}
	}
	return keep, nil
}
