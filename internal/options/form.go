package options

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// Form is an interactive rendering of a field list.
type Form struct {
	*huh.Form

	bools   map[string]*bool
	strings map[string]*string
}

// NewForm builds a huh form for fields, prefilled with their defaults.
func NewForm(fields []Field) *Form {
	f := &Form{
		bools:   make(map[string]*bool),
		strings: make(map[string]*string),
	}

	var inputs []huh.Field
	for _, field := range fields {
		switch field.Kind {
		case KindBool:
			v, _ := field.Default.(bool)
			f.bools[field.Key] = &v
			inputs = append(inputs, huh.NewConfirm().Key(field.Key).Title(field.Title).Value(&v))
		case KindSelect:
			v := fmt.Sprint(field.Default)
			f.strings[field.Key] = &v
			opts := make([]huh.Option[string], len(field.Choices))
			for i, c := range field.Choices {
				opts[i] = huh.NewOption(c, c)
			}
			inputs = append(inputs, huh.NewSelect[string]().Key(field.Key).Title(field.Title).Options(opts...).Value(&v))
		default:
			v, _ := field.Default.(string)
			f.strings[field.Key] = &v
			inputs = append(inputs, huh.NewInput().Key(field.Key).Title(field.Title).Value(&v))
		}
	}

	f.Form = huh.NewForm(huh.NewGroup(inputs...))
	return f
}

// Values returns the current field values keyed by option.
func (f *Form) Values() map[string]any {
	out := make(map[string]any, len(f.bools)+len(f.strings))
	for k, v := range f.bools {
		out[k] = *v
	}
	for k, v := range f.strings {
		out[k] = *v
	}
	return out
}
