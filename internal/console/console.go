// Package console runs a flashcard quiz in the terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/conorfennell/knolnotes/internal/domain"
	"github.com/conorfennell/knolnotes/internal/flashcard"
)

// SkipCommand moves to the next card without judging the current one.
const SkipCommand = ":skip"

// Summary counts the answers given during a quiz.
type Summary struct {
	Answered int
	Correct  int
}

// Run quizzes notes in order, one line of input per answer. After each
// answer it prints the verdict and waits for the card's advance delay before
// showing the next prompt. It returns when in is exhausted or ctx is done;
// the deck is closed either way.
func Run(ctx context.Context, in io.Reader, out io.Writer, notes []domain.Note, opts ...flashcard.Option) (Summary, error) {
	var sum Summary
	if len(notes) == 0 {
		fmt.Fprintln(out, "No notes to quiz.")
		return sum, nil
	}

	done := make(chan struct{})
	defer close(done)
	advanced := make(chan int, 1)
	opts = append(opts, flashcard.OnAdvance(func(idx int) {
		select {
		case advanced <- idx:
		case <-done:
		}
	}))

	deck := flashcard.NewDeck(notes, opts...)
	defer deck.Close()

	lines := readLines(in, done)

	fmt.Fprintf(out, "Quiz: %d notes. Type an answer and press Enter, %q to skip.\n", deck.Len(), SkipCommand)
	for {
		s := deck.Current()
		if s == nil {
			return sum, nil
		}
		fmt.Fprintf(out, "[%d/%d] %s\n> ", deck.Index()+1, deck.Len(), s.Prompt())

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return sum, ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintf(out, "\nAnswered %d, correct %d.\n", sum.Answered, sum.Correct)
			return sum, nil
		}

		if strings.TrimSpace(line) == SkipCommand {
			deck.Skip()
		} else {
			deck.Input(line)
			outcome, _ := deck.Commit()
			sum.Answered++
			if outcome == flashcard.Correct {
				sum.Correct++
				fmt.Fprintln(out, "Correct!")
			} else {
				answer, _ := s.RevealedAnswer()
				fmt.Fprintf(out, "Correct answer: %s\n", answer)
			}
		}

		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		case <-advanced:
		}
	}
}

// readLines feeds in line by line until EOF or until done is closed.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}
