package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/Jaiwincr7/rag-based-model/cmd/mitrerag/internal"
	"github.com/Jaiwincr7/rag-based-model/internal/router"
)

const replPrompt = "mitrerag> "

type askOptions struct {
	file        string
	concurrency int
}

// askResult is one answered query in --output json mode.
type askResult struct {
	Query string `json:"query"`
	router.Answer
}

func newAskCmd(c *cli) *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Answer questions against the ingested index",
		Long: `Ask answers one query given as arguments, every line of --file, or, when no
query is given, runs an interactive prompt (stdin lines when stdin is not a
terminal).`,
		Example: `  mitrerag ask "What are the defenses for Keylogging?"
  mitrerag ask "List techniques for persistence"
  mitrerag ask --file questions.txt -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.concurrency < 1 {
				return internal.NewCLIError(internal.ExitConfigError, "--concurrency must be at least 1")
			}
			if opts.file != "" && len(args) > 0 {
				return internal.NewCLIError(internal.ExitConfigError, "pass a query or --file, not both")
			}
			return c.runAsk(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "File with one query per line ('-' for stdin)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Queries answered in parallel with --file")
	return cmd
}

func (c *cli) runAsk(cmd *cobra.Command, args []string, opts *askOptions) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, c.cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	solver, closeSolver, err := a.newSolver(ctx)
	if err != nil {
		return err
	}
	defer closeSolver()

	out := cmd.OutOrStdout()
	switch {
	case len(args) > 0:
		ans := solver.Answer(ctx, strings.Join(args, " "))
		return printAnswers(cmd, []askResult{{Query: strings.Join(args, " "), Answer: ans}})

	case opts.file != "":
		queries, err := readQueries(cmd, opts.file)
		if err != nil {
			return err
		}
		results, err := answerAll(ctx, solver, queries, opts.concurrency)
		if err != nil {
			return err
		}
		return printAnswers(cmd, results)

	case isTerminal(cmd.InOrStdin()):
		return repl(ctx, solver, cmd.InOrStdin(), out)

	default:
		queries, err := scanQueries(cmd.InOrStdin())
		if err != nil {
			return err
		}
		results, err := answerAll(ctx, solver, queries, opts.concurrency)
		if err != nil {
			return err
		}
		return printAnswers(cmd, results)
	}
}

// answerAll answers queries concurrently and returns results in input order.
func answerAll(ctx context.Context, solver router.Solver, queries []string, limit int) ([]askResult, error) {
	results := make([]askResult, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, q := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = askResult{Query: q, Answer: solver.Answer(ctx, q)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printAnswers(cmd *cobra.Command, results []askResult) error {
	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		if len(results) == 1 {
			return writeJSON(out, results[0])
		}
		return writeJSON(out, results)
	}

	for i, r := range results {
		if len(results) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Q: %s\n", r.Query)
		}
		fmt.Fprintln(out, r.Text)
	}
	return nil
}

func repl(ctx context.Context, solver router.Solver, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Ask about ATT&CK techniques, mitigations or tactics. Type 'exit' to quit.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, replPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		fmt.Fprintln(out, solver.Answer(ctx, line).Text)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func readQueries(cmd *cobra.Command, path string) ([]string, error) {
	if path == "-" {
		return scanQueries(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, internal.WrapError(internal.ExitError, "cannot open query file", err)
	}
	defer f.Close()
	return scanQueries(f)
}

// scanQueries returns the non-blank lines of r. Lines starting with '#' are
// comments.
func scanQueries(r io.Reader) ([]string, error) {
	var queries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	return queries, scanner.Err()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
