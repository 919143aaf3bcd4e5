package model

import (
	"fmt"
	"log/slog"
	"strings"
)

// String renders a readable form of the expression. Unnamed variables render
// through their operation; named ones render their name with the definition
// in angle brackets for random variables.
func (v *Variable) String() string {
	var sb strings.Builder
	v.show(&sb, true)
	return sb.String()
}

func (v *Variable) show(sb *strings.Builder, root bool) {
	switch {
	case v.Op == OpSymbol:
		if v.Name == "" {
			fmt.Fprintf(sb, "sym@%d", v.seq)
			return
		}
		sb.WriteString(v.Name)
	case v.Op == OpConst:
		fmt.Fprintf(sb, "%g", v.Value)
	case v.Name != "" && !root:
		sb.WriteString(v.Name)
	default:
		if v.Name != "" {
			sb.WriteString(v.Name)
			sb.WriteString("=")
		}
		sb.WriteString(v.Op.String())
		sb.WriteString("(")
		for i, in := range v.Inputs {
			if i > 0 {
				sb.WriteString(", ")
			}
			in.show(sb, false)
		}
		sb.WriteString(")")
	}
}

// Slog wraps a Variable as a slog.LogValuer so expression strings are not
// rendered unless they definitely need to be logged.
func Slog(v *Variable) slog.LogValuer {
	return varLogValuer{v}
}

type varLogValuer struct{ v *Variable }

func (l varLogValuer) LogValue() slog.Value {
	return slog.StringValue(l.v.String())
}
