package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/framekv-go/pkg/frame"
)

// DefaultPrompt is printed before each input line.
const DefaultPrompt = "framekv> "

// Doer sends one request and returns the reply.
type Doer interface {
	Do(ctx context.Context, req frame.Frame) (frame.Frame, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	client    Doer
	completer *Completer
	history   *History
	prompt    string
}

// Option configures a REPL.
type Option func(*REPL)

// WithHistory records entered lines into h.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithPrompt replaces DefaultPrompt.
func WithPrompt(p string) Option {
	return func(r *REPL) { r.prompt = p }
}

// New creates a REPL reading from in and writing to out.
func New(client Doer, in io.Reader, out io.Writer, opts ...Option) *REPL {
	r := &REPL{
		input:     in,
		output:    out,
		client:    client,
		completer: NewCompleter(),
		history:   NewHistory(""),
		prompt:    DefaultPrompt,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until EOF, exit or quit. Server and parse errors are
// printed and the loop continues; transport errors end it.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}

		if err := r.execute(ctx, line); err != nil {
			return err
		}
	}
}

// execute handles one non-empty line. Only transport failures are
// returned.
func (r *REPL) execute(ctx context.Context, line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		fmt.Fprintf(r.output, "(error) %v\n", err)
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "help":
		prefix := ""
		if len(args) > 1 {
			prefix = args[1]
		}
		for _, name := range r.completer.Complete(prefix) {
			fmt.Fprintln(r.output, name)
		}
		return nil
	case "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
		return nil
	}

	parts := make([][]byte, len(args))
	for i, a := range args {
		parts[i] = []byte(a)
	}

	reply, err := r.client.Do(ctx, frame.BulkArray(parts...))
	if err != nil {
		return err
	}
	fmt.Fprint(r.output, FormatReply(reply))
	return nil
}

// SplitArgs splits a line into words. Double-quoted words may contain
// spaces and Go escape sequences.
func SplitArgs(line string) ([]string, error) {
	var args []string
	for i := 0; i < len(line); {
		switch c := line[i]; {
		case c == ' ' || c == '\t':
			i++
		case c == '"':
			end := closingQuote(line, i+1)
			if end < 0 {
				return nil, errors.New("unterminated quote")
			}
			word, err := strconv.Unquote(line[i : end+1])
			if err != nil {
				return nil, fmt.Errorf("invalid quoted argument: %w", err)
			}
			args = append(args, word)
			i = end + 1
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			args = append(args, line[i:j])
			i = j
		}
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	return args, nil
}

func closingQuote(s string, from int) int {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// FormatReply renders a reply the way the shell prints it, ending with a
// newline.
func FormatReply(f frame.Frame) string {
	var b strings.Builder
	formatReply(&b, f, "")
	return b.String()
}

func formatReply(b *strings.Builder, f frame.Frame, indent string) {
	switch f.Kind {
	case frame.KindSimple:
		b.WriteString(f.Text)
	case frame.KindError:
		b.WriteString("(error) " + f.Text)
	case frame.KindBulk:
		b.WriteString(strconv.Quote(string(f.Data)))
	case frame.KindNull:
		b.WriteString("(nil)")
	case frame.KindInteger:
		b.WriteString("(integer) " + strconv.FormatInt(f.Int, 10))
	case frame.KindArray:
		if len(f.Elems) == 0 {
			b.WriteString("(empty array)")
			break
		}
		for i, e := range f.Elems {
			if i > 0 {
				b.WriteString(indent)
			}
			label := strconv.Itoa(i+1) + ") "
			b.WriteString(label)
			formatReply(b, e, indent+strings.Repeat(" ", len(label)))
		}
		return
	default:
		b.WriteString(f.String())
	}
	b.WriteByte('\n')
}
