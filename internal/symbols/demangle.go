package symbols

import (
	"fmt"

	"github.com/ianlancetaylor/demangle"
)

// DemangleStyle selects how C++ and Rust symbol names are rendered.
type DemangleStyle string

const (
	// DemangleNone keeps names as written in the image.
	DemangleNone DemangleStyle = "none"
	// DemangleSimplified drops parameters and template arguments: ns::Class::method.
	DemangleSimplified DemangleStyle = "simplified"
	// DemangleTemplates keeps template arguments but drops parameters.
	DemangleTemplates DemangleStyle = "templates"
	// DemangleFull renders the complete signature.
	DemangleFull DemangleStyle = "full"
)

// DemangleStyles lists the accepted style names.
var DemangleStyles = []DemangleStyle{DemangleNone, DemangleSimplified, DemangleTemplates, DemangleFull}

// ParseDemangleStyle validates a configured style name. An empty name selects
// DemangleSimplified.
func ParseDemangleStyle(name string) (DemangleStyle, error) {
	if name == "" {
		return DemangleSimplified, nil
	}
	for _, s := range DemangleStyles {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown demangle style %q", name)
}

func (s DemangleStyle) options() []demangle.Option {
	switch s {
	case DemangleSimplified:
		return []demangle.Option{demangle.NoParams, demangle.NoEnclosingParams, demangle.NoTemplateParams}
	case DemangleTemplates:
		return []demangle.Option{demangle.NoParams, demangle.NoEnclosingParams}
	case DemangleFull:
		return []demangle.Option{demangle.NoClones}
	default:
		return nil
	}
}

// Demangle renders name in the given style. Names that are not mangled are returned
// unchanged.
func (s DemangleStyle) Demangle(name string) string {
	if s == DemangleNone || name == "" {
		return name
	}
	return demangle.Filter(name, s.options()...)
}
