package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

type menuAction int

const (
	actionInvalid menuAction = iota
	actionSymbol
	actionAll
	actionQuit
)

// batchRunner is what the menu drives; *app in production
type batchRunner interface {
	runBatch(ctx context.Context, symbols []string) error
	runPending(ctx context.Context, symbols []string) error
}

// parseChoice interprets one line of menu input. Symbols match
// case-insensitively and come back as listed.
func parseChoice(input string, symbols []string) (menuAction, string) {
	choice := strings.TrimSpace(input)
	switch strings.ToLower(choice) {
	case "":
		return actionInvalid, ""
	case "all":
		return actionAll, ""
	case "quit", "exit":
		return actionQuit, ""
	}
	for _, s := range symbols {
		if strings.EqualFold(s, choice) {
			return actionSymbol, s
		}
	}
	return actionInvalid, ""
}

// runMenu lists the symbols and prompts until the user quits, picks "all",
// or input ends. A single symbol returns to the prompt afterwards.
func runMenu(ctx context.Context, in io.Reader, out io.Writer, symbols []string, r batchRunner) error {
	fmt.Fprintf(out, "Available symbols (%d):\n", len(symbols))
	fmt.Fprintln(out, strings.Join(symbols, " "))

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, "\nEnter a symbol, 'all' or 'quit': ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		action, symbol := parseChoice(scanner.Text(), symbols)
		switch action {
		case actionQuit:
			return nil
		case actionAll:
			return r.runPending(ctx, symbols)
		case actionSymbol:
			if err := r.runBatch(ctx, []string{symbol}); err != nil {
				return err
			}
		default:
			fmt.Fprintln(out, "Input error, please retry")
		}
	}
}
