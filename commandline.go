package liquibase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// secretKeys are masked by CommandLine.Redacted, along with any flag whose
// name ends in one of secretSuffixes.
var secretKeys = map[string]struct{}{
	KeyPassword:               {},
	KeyReferencePassword:      {},
	KeyLiquibaseProLicenseKey: {},
}

var secretSuffixes = []string{"password", "key", "token", "secret"}

func isSecret(name string) bool {
	if _, ok := secretKeys[name]; ok {
		return true
	}
	lower := strings.ToLower(name)
	for _, s := range secretSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// CommandLine is a fully assembled Liquibase invocation.
//
// Tokens is the display form: global values raw, parameter values JSON
// encoded. Args is what the process actually receives; it holds the value
// a shell would have produced from each token, so JSON strings reach
// Liquibase without their quotes. The line is never handed to a shell.
type CommandLine struct {
	Path    string
	Command Command
	Args    []string
	Tokens  []string
}

// String renders the invocation as a single line.
func (cl CommandLine) String() string {
	return strings.Join(append([]string{cl.Path}, cl.Tokens...), " ")
}

// Redacted renders the invocation with secret values masked.
func (cl CommandLine) Redacted() string {
	parts := make([]string, 0, len(cl.Tokens)+1)
	parts = append(parts, cl.Path)
	for _, tok := range cl.Tokens {
		if name, _, ok := splitFlag(tok); ok {
			if isSecret(name) {
				tok = "--" + name + "=*****"
			}
		}
		parts = append(parts, tok)
	}
	return strings.Join(parts, " ")
}

func splitFlag(tok string) (name, value string, ok bool) {
	if !strings.HasPrefix(tok, "--") {
		return "", "", false
	}
	return strings.Cut(tok[2:], "=")
}

// BuildCommandLine assembles
//
//	<liquibase> --<global>=<value>... <command> --<param>=<json>...
//
// with globals and parameters each sorted by key.
func BuildCommandLine(cfg Config, cmd Command, params ParameterSet) (CommandLine, error) {
	if !cmd.Valid() {
		return CommandLine{}, fmt.Errorf("%w: %q", ErrUnknownCommand, string(cmd))
	}
	attrs := cfg.Attributes()
	cl := CommandLine{Path: cfg.Liquibase, Command: cmd}

	for _, key := range cfg.Keys() {
		if key == KeyLiquibase {
			continue
		}
		tok := fmt.Sprintf("--%s=%s", key, attrs[key])
		cl.Tokens = append(cl.Tokens, tok)
		cl.Args = append(cl.Args, tok)
	}

	cl.Tokens = append(cl.Tokens, string(cmd))
	cl.Args = append(cl.Args, string(cmd))

	for _, key := range params.Keys() {
		encoded, err := encodeValue(params[key])
		if err != nil {
			return CommandLine{}, fmt.Errorf("encoding parameter --%s: %w", key, err)
		}
		cl.Tokens = append(cl.Tokens, fmt.Sprintf("--%s=%s", key, encoded))
		cl.Args = append(cl.Args, fmt.Sprintf("--%s=%s", key, shellValue(encoded)))
	}
	return cl, nil
}

// encodeValue JSON-encodes v without HTML escaping so '<', '>' and '&'
// stay literal in the token.
func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// shellValue returns what a POSIX shell would pass for a JSON-encoded
// value: strings lose their quotes and escapes, everything else is kept.
func shellValue(encoded []byte) string {
	var s string
	if len(encoded) > 0 && encoded[0] == '"' && json.Unmarshal(encoded, &s) == nil {
		return s
	}
	return string(encoded)
}

// ForwardedCommandLine builds an invocation from raw CLI arguments. When
// the first argument is a known command or a --flag, path is used as the
// executable; otherwise the first argument is taken as the executable.
func ForwardedCommandLine(path string, args []string) (CommandLine, error) {
	if len(args) == 0 {
		return CommandLine{}, ErrCallSignature
	}
	first := args[0]
	if Command(first).Valid() || strings.HasPrefix(first, "--") {
		args = append([]string{path}, args...)
	}
	rest := append([]string(nil), args[1:]...)
	cl := CommandLine{Path: args[0], Args: rest, Tokens: rest}
	for _, a := range rest {
		if c := Command(a); c.Valid() {
			cl.Command = c
			break
		}
	}
	return cl, nil
}
