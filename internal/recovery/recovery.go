package recovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparseable is matched by every error returned from Parse.
var ErrUnparseable = errors.New("model response is not recoverable JSON")

// errNotObject is returned when the text is valid JSON but not an object.
var errNotObject = errors.New("JSON value is not an object")

// DecodeError reports that every strategy failed. Raw holds the original
// response for diagnostics.
type DecodeError struct {
	Raw  string
	Errs []error
}

func (e *DecodeError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s (%d strategies tried: %s)", ErrUnparseable, len(e.Errs), strings.Join(msgs, "; "))
}

func (e *DecodeError) Is(target error) bool { return target == ErrUnparseable }

// Strategy converts raw model text into a JSON object.
type Strategy struct {
	Name string
	Fn   func(string) (map[string]any, error)
}

// Strategies returns the recovery strategies in the order Parse applies them.
func Strategies() []Strategy {
	return []Strategy{
		{Name: "direct", Fn: Direct},
		{Name: "repair-escapes", Fn: RepairEscapes},
		{Name: "markdown-fence", Fn: FromFence},
		{Name: "brace-boundary", Fn: FromBraces},
	}
}

// Parse applies each strategy in order and returns the first success.
func Parse(raw string) (map[string]any, error) {
	var errs []error
	for _, s := range Strategies() {
		m, err := s.Fn(raw)
		if err == nil {
			return m, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return nil, &DecodeError{Raw: raw, Errs: errs}
}

// Direct parses the whole text as a JSON object.
func Direct(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &v); err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return m, nil
}

// RepairEscapes doubles every backslash that does not start a valid JSON
// escape sequence and re-parses. Models routinely emit Windows paths and
// regex fragments such as "C:\New" inside string values.
func RepairEscapes(text string) (map[string]any, error) {
	repaired, changed := repairEscapes(text)
	if !changed {
		return nil, errors.New("no invalid escape sequences to repair")
	}
	return Direct(repaired)
}

// FromFence extracts the body of a ```json fence (or, failing that, the first
// bare ``` fence) and retries Direct and RepairEscapes on it.
func FromFence(text string) (map[string]any, error) {
	body, ok := fenceBody(text)
	if !ok {
		return nil, errors.New("no markdown code fence found")
	}
	return reparse(body)
}

// FromBraces takes the text between the first '{' and the last '}' and
// retries Direct and RepairEscapes on it.
func FromBraces(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no brace-delimited object found")
	}
	return reparse(text[start : end+1])
}

func reparse(text string) (map[string]any, error) {
	m, err := Direct(text)
	if err == nil {
		return m, nil
	}
	if m, rerr := RepairEscapes(text); rerr == nil {
		return m, nil
	}
	return nil, err
}

func fenceBody(text string) (string, bool) {
	const jsonFence = "```json"
	if i := strings.Index(text, jsonFence); i >= 0 {
		return untilFence(text[i+len(jsonFence):]), true
	}
	i := strings.Index(text, "```")
	if i < 0 {
		return "", false
	}
	rest := text[i+3:]
	// Skip an optional language tag on the opening line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}
	return untilFence(rest), true
}

func untilFence(s string) string {
	if j := strings.Index(s, "```"); j >= 0 {
		s = s[:j]
	}
	return strings.TrimSpace(s)
}

// repairEscapes keeps valid escapes (\" \\ \/ \b \f \n \r \t \uXXXX) intact
// and doubles any other backslash.
func repairEscapes(text string) (string, bool) {
	var b strings.Builder
	b.Grow(len(text) + 8)
	changed := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if n := validEscapeLen(text[i:]); n > 0 {
			b.WriteString(text[i : i+n])
			i += n - 1
			continue
		}
		b.WriteString(`\\`)
		changed = true
	}
	return b.String(), changed
}

func validEscapeLen(s string) int {
	if len(s) < 2 {
		return 0
	}
	switch s[1] {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		return 2
	case 'u':
		if len(s) < 6 {
			return 0
		}
		for _, h := range s[2:6] {
			if !isHex(h) {
				return 0
			}
		}
		return 6
	}
	return 0
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
