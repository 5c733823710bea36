package gateway

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/okayama-daiki/sensei/internal/agent"
	"github.com/okayama-daiki/sensei/internal/observability"
	"github.com/okayama-daiki/sensei/internal/schema"
)

// Converser is the slice of the orchestrator the console needs.
type Converser interface {
	Converse(ctx context.Context, sessionID string, student agent.Context, input string) (schema.Answer, error)
}

// Console is a line-oriented read-print loop over one session. Blank lines
// are skipped, "exit"/"quit" (any case) and end-of-input terminate cleanly.
type Console struct {
	Professor Converser
	SessionID string
	Student   agent.Context

	In          io.Reader
	Out         io.Writer
	Interactive bool
}

func NewConsole(professor Converser, sessionID string, student agent.Context) *Console {
	return &Console{
		Professor:   professor,
		SessionID:   sessionID,
		Student:     student,
		In:          os.Stdin,
		Out:         os.Stdout,
		Interactive: observability.IsInteractive(),
	}
}

func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.Out, "Type 'exit' or 'quit' to end the conversation.")

	scanner := bufio.NewScanner(c.In)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if c.Interactive {
			fmt.Fprint(c.Out, "You: ")
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			// EOF ends the session cleanly.
			fmt.Fprintln(c.Out, "\nEOF received. Exiting.")
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "exit", "quit":
			fmt.Fprintln(c.Out, "Goodbye!")
			return nil
		}

		answer, err := c.Professor.Converse(ctx, c.SessionID, c.Student, input)
		if err != nil {
			// Persistence failures are the one path the orchestrator cannot
			// absorb; keep the printed contract intact regardless.
			log.Printf("conversation error: %v", err)
			answer = schema.Sentinel("")
		}

		fmt.Fprintf(c.Out, "Professor: %s\n", answer.Explanation)
		if answer.NextSteps != nil && *answer.NextSteps != "" {
			fmt.Fprintf(c.Out, "Next steps: %s\n", *answer.NextSteps)
		}
		if answer.RelatedConcepts != nil && *answer.RelatedConcepts != "" {
			fmt.Fprintf(c.Out, "Related concepts: %s\n", *answer.RelatedConcepts)
		}
	}
}
