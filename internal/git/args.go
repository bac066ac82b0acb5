package git

import "strings"

// hiddenToken replaces every sensitive argument in log-facing output.
const hiddenToken = "(hidden)"

type argKind int

const (
	argPlain argKind = iota
	argQuoted
	argSensitive
)

// Argument is a single command-line argument. Sensitive arguments are always
// quoted when rendered and never rendered in their literal form by Redacted.
type Argument struct {
	kind argKind
	text string
}

// Plain returns an argument rendered verbatim.
func Plain(text string) Argument { return Argument{kind: argPlain, text: text} }

// Quoted returns an argument rendered in double quotes.
func Quoted(text string) Argument { return Argument{kind: argQuoted, text: text} }

// Sensitive returns a quoted argument that is hidden in redacted output.
func Sensitive(text string) Argument { return Argument{kind: argSensitive, text: text} }

func (a Argument) render() string {
	if a.kind == argPlain {
		return a.text
	}
	return quote(a.text)
}

func (a Argument) redacted() string {
	if a.kind == argSensitive {
		return hiddenToken
	}
	return a.render()
}

// quote wraps s in double quotes, escaping embedded double quotes with a
// single backslash. No other character is altered.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// Arguments is an ordered list of command-line arguments with two
// projections: Render for execution and Redacted for logs.
type Arguments struct {
	args []Argument
}

// NewArguments returns an argument list seeded with initial as a single plain
// argument. An empty initial string yields an empty list.
func NewArguments(initial string) *Arguments {
	a := &Arguments{args: make([]Argument, 0, 16)}
	if initial != "" {
		a.Append(initial)
	}
	return a
}

// Append adds a plain argument.
func (a *Arguments) Append(arg string) *Arguments {
	a.args = append(a.args, Plain(arg))
	return a
}

// AppendQuoted adds a quoted argument.
func (a *Arguments) AppendQuoted(arg string) *Arguments {
	a.args = append(a.args, Quoted(arg))
	return a
}

// AppendSensitive adds a quoted argument that is hidden in Redacted output.
func (a *Arguments) AppendSensitive(arg string) *Arguments {
	a.args = append(a.args, Sensitive(arg))
	return a
}

// Render joins the arguments with spaces, quoting quoted and sensitive ones.
func (a *Arguments) Render() string {
	parts := make([]string, len(a.args))
	for i, arg := range a.args {
		parts[i] = arg.render()
	}
	return strings.Join(parts, " ")
}

// Redacted is Render with every sensitive argument replaced by "(hidden)".
func (a *Arguments) Redacted() string {
	parts := make([]string, len(a.args))
	for i, arg := range a.args {
		parts[i] = arg.redacted()
	}
	return strings.Join(parts, " ")
}

// String returns the redacted form so that accidental formatting with %v or
// %s never leaks sensitive values.
func (a *Arguments) String() string { return a.Redacted() }

// Argv returns the raw argument values for direct process execution, where no
// shell quoting is involved.
func (a *Arguments) Argv() []string {
	argv := make([]string, len(a.args))
	for i, arg := range a.args {
		argv[i] = arg.text
	}
	return argv
}

// Scrub replaces every occurrence of a sensitive argument value, raw or
// quoted, in s with "(hidden)". It is applied to captured process output
// before that output is logged or attached to an error.
func (a *Arguments) Scrub(s string) string {
	for _, arg := range a.args {
		if arg.kind != argSensitive || arg.text == "" {
			continue
		}
		s = strings.ReplaceAll(s, quote(arg.text), hiddenToken)
		s = strings.ReplaceAll(s, arg.text, hiddenToken)
	}
	return s
}
