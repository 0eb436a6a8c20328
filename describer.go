package eventstorage

import (
	"reflect"
	"strings"
	"unicode"
)

// Describer maps an event type to the label it is stored under. A describer
// must be deterministic and stable across process restarts, otherwise
// previously stored records can no longer be resolved.
type Describer interface {
	Describe(t reflect.Type) string
}

// DescriberFunc adapts a plain function to the Describer interface.
type DescriberFunc func(t reflect.Type) string

func (f DescriberFunc) Describe(t reflect.Type) string {
	return f(t)
}

// KebabCase describes a type by its short name in kebab case, so
// InvoiceWasCreated is stored as "invoice-was-created". Pointer types are
// described by their element type.
type KebabCase struct{}

func (KebabCase) Describe(t reflect.Type) string {
	return kebab(TypeName(t))
}

// TypeName returns the short name of t without package path or pointer
// indirections. Generic instantiations keep their type arguments.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func kebab(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
			continue
		}

		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) &&
				!strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return strings.Trim(b.String(), "-")
}
