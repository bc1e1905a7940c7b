package sqlgen

import (
	"fmt"
	"strings"

	"github.com/pqlc-dev/pqlc/internal/sqlast"
)

// nodeText prints the fixed set of sqlast.Expr shapes this package itself
// constructs back into literal text, so the operator-template substitution
// in renderTemplate can splice a structured argument (a CASE, an IN list,
// a nested function call) into a parent template's {i} hole. It is not a
// general sqlast printer — that pass lives outside this package's scope —
// only wide enough to round-trip sqlgen's own output.
func nodeText(e sqlast.Expr) (string, error) {
	switch k := e.(type) {
	case *sqlast.ColumnRef:
		if k.Table != "" {
			return k.Table + "." + k.Column, nil
		}
		return k.Column, nil
	case *sqlast.Literal:
		return k.Value, nil
	case *sqlast.Raw:
		return k.Text, nil
	case *sqlast.Param:
		return "$" + k.Name, nil
	case *sqlast.BinaryExpr:
		left, err := nodeText(k.Left)
		if err != nil {
			return "", err
		}
		right, err := nodeText(k.Right)
		if err != nil {
			return "", err
		}
		return left + " " + k.Op + " " + right, nil
	case *sqlast.UnaryExpr:
		inner, err := nodeText(k.Expr)
		if err != nil {
			return "", err
		}
		return k.Op + " " + inner, nil
	case *sqlast.ParenExpr:
		inner, err := nodeText(k.Expr)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	case *sqlast.IsNullExpr:
		inner, err := nodeText(k.Expr)
		if err != nil {
			return "", err
		}
		if k.Not {
			return inner + " IS NOT NULL", nil
		}
		return inner + " IS NULL", nil
	case *sqlast.BetweenExpr:
		inner, err := nodeText(k.Expr)
		if err != nil {
			return "", err
		}
		low, err := nodeText(k.Low)
		if err != nil {
			return "", err
		}
		high, err := nodeText(k.High)
		if err != nil {
			return "", err
		}
		not := ""
		if k.Not {
			not = "NOT "
		}
		return fmt.Sprintf("%s %sBETWEEN %s AND %s", inner, not, low, high), nil
	case *sqlast.InExpr:
		inner, err := nodeText(k.Expr)
		if err != nil {
			return "", err
		}
		values := make([]string, len(k.Values))
		for i, v := range k.Values {
			text, err := nodeText(v)
			if err != nil {
				return "", err
			}
			values[i] = text
		}
		not := ""
		if k.Not {
			not = "NOT "
		}
		return fmt.Sprintf("%s %sIN (%s)", inner, not, strings.Join(values, ", ")), nil
	case *sqlast.ArrayExpr:
		items := make([]string, len(k.Items))
		for i, it := range k.Items {
			text, err := nodeText(it)
			if err != nil {
				return "", err
			}
			items[i] = text
		}
		return "(" + strings.Join(items, ", ") + ")", nil
	case *sqlast.CaseExpr:
		var b strings.Builder
		b.WriteString("CASE")
		for i, w := range k.Whens {
			cond, err := nodeText(w.Condition)
			if err != nil {
				return "", err
			}
			result, err := nodeText(w.Result)
			if err != nil {
				return "", err
			}
			if i == len(k.Whens)-1 && cond == "TRUE" {
				b.WriteString(" ELSE " + result)
				continue
			}
			b.WriteString(" WHEN " + cond + " THEN " + result)
		}
		b.WriteString(" END")
		return b.String(), nil
	case *sqlast.FuncCall:
		return funcCallText(k)
	default:
		return "", fmt.Errorf("sqlgen: %T cannot be embedded as a template argument", e)
	}
}

func funcCallText(k *sqlast.FuncCall) (string, error) {
	args := make([]string, len(k.Args))
	for i, a := range k.Args {
		text, err := nodeText(a)
		if err != nil {
			return "", err
		}
		args[i] = text
	}
	inner := strings.Join(args, ", ")
	if k.Star {
		inner = "*"
	}
	if k.Distinct {
		inner = "DISTINCT " + inner
	}
	call := k.Name + "(" + inner + ")"
	if k.Window == nil {
		return call, nil
	}
	windowText, err := windowSpecText(k.Window)
	if err != nil {
		return "", err
	}
	return call + " OVER (" + windowText + ")", nil
}

func windowSpecText(w *sqlast.WindowSpec) (string, error) {
	var parts []string
	if len(w.PartitionBy) > 0 {
		items := make([]string, len(w.PartitionBy))
		for i, p := range w.PartitionBy {
			text, err := nodeText(p)
			if err != nil {
				return "", err
			}
			items[i] = text
		}
		parts = append(parts, "PARTITION BY "+strings.Join(items, ", "))
	}
	if len(w.OrderBy) > 0 {
		items := make([]string, len(w.OrderBy))
		for i, o := range w.OrderBy {
			text, err := nodeText(o.Expr)
			if err != nil {
				return "", err
			}
			if o.Desc {
				text += " DESC"
			}
			items[i] = text
		}
		parts = append(parts, "ORDER BY "+strings.Join(items, ", "))
	}
	return strings.Join(parts, " "), nil
}
