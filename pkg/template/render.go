package template

import (
	"strings"

	"github.com/windlass-sh/windlass/pkg/errors"
)

// Vars provides values for template placeholders.
type Vars interface {
	Lookup(key string) (string, bool)
}

// Render substitutes every %(key)s placeholder in `raw` with the
// corresponding variable. %% renders as a literal percent sign. Referencing
// an unset variable fails with errors.MissingVariable, and any other use of
// a percent sign fails with errors.RenderError rather than silently leaving
// the placeholder in the output.
func Render(raw string, vars Vars) (string, error) {
	var rendered strings.Builder
	for i := 0; i < len(raw); {
		if raw[i] != '%' {
			rendered.WriteByte(raw[i])
			i++
			continue
		}

		if i+1 < len(raw) && raw[i+1] == '%' {
			rendered.WriteByte('%')
			i += 2
			continue
		}

		if i+1 >= len(raw) || raw[i+1] != '(' {
			return "", errors.RenderError{
				Reason: "% must introduce a %(key)s placeholder, or be escaped as %%",
			}
		}

		end := strings.IndexByte(raw[i+2:], ')')
		if end == -1 {
			return "", errors.RenderError{Reason: "unterminated placeholder"}
		}
		key := raw[i+2 : i+2+end]

		verb := i + 2 + end + 1
		if verb >= len(raw) || raw[verb] != 's' {
			return "", errors.RenderError{
				Reason: "placeholder %(" + key + ") must end with the s verb",
			}
		}

		value, ok := vars.Lookup(key)
		if !ok {
			return "", errors.MissingVariable{Key: key}
		}
		rendered.WriteString(value)
		i = verb + 1
	}
	return rendered.String(), nil
}
