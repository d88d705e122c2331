package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/perbu/pdfqa/pkg/app"
	"github.com/perbu/pdfqa/pkg/pdfqa"
)

// asker is the part of *pdfqa.Session the loop needs
type asker interface {
	Ask(ctx context.Context, question string) (*pdfqa.Answer, error)
}

// runLoop reads questions line by line until quit, EOF or ctx is done.
// Errors from a single question are reported and the loop continues.
func runLoop(ctx context.Context, in io.Reader, out, errOut io.Writer, session asker, previewRunes int) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // Releases the reader goroutine

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(out, "Ready! Type your questions below.")
	fmt.Fprintln(out, "Type 'quit' or 'exit' to stop.")
	fmt.Fprintln(out, strings.Repeat("=", 80))

	for {
		fmt.Fprint(out, "\nYour question: ")

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nExiting...")
			return
		case line, ok = <-lines:
			if !ok {
				fmt.Fprintln(out)
				return
			}
		}

		question := strings.TrimSpace(line)
		switch strings.ToLower(question) {
		case "":
			fmt.Fprintln(out, "Please enter a question.")
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return
		}

		fmt.Fprintf(out, "\nQuestion: %s\n", question)

		answer, err := session.Ask(ctx, question)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(out, "\nExiting...")
				return
			}
			fmt.Fprintf(errOut, "Error: %v\n", err)
			if hint := app.Hint(err); hint != "" {
				fmt.Fprintf(errOut, "Hint: %s\n", hint)
			}
			continue
		}

		if err := pdfqa.FormatAnswer(out, answer, previewRunes); err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(out, strings.Repeat("-", 80))
	}
}
