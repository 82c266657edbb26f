package nudge

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

var templateFuncs = template.FuncMap{
	"plural":     plural,
	"formatName": formatName,
}

// Personalize returns cfg with Title and Description rewritten by the first
// variant the context satisfies. Fields a variant leaves empty, and variants
// that fail to render, keep the catalog defaults.
func Personalize(cfg Config, ctx Context) (Config, error) {
	out := cloneConfig(cfg)
	if len(ctx) == 0 {
		return out, nil
	}
	for _, v := range cfg.Variants {
		if !v.matches(ctx) {
			continue
		}
		title, err := render(v.Title, ctx)
		if err != nil {
			return out, fmt.Errorf("render %s title: %w", cfg.Type, err)
		}
		desc, err := render(v.Description, ctx)
		if err != nil {
			return out, fmt.Errorf("render %s description: %w", cfg.Type, err)
		}
		if title != "" {
			out.Title = title
		}
		if desc != "" {
			out.Description = desc
		}
		return out, nil
	}
	return out, nil
}

func (v Variant) matches(ctx Context) bool {
	for _, key := range v.Requires {
		val, ok := ctx[key]
		if !ok || val == nil {
			return false
		}
		if s, isStr := val.(string); isStr && s == "" {
			return false
		}
	}
	for key, floor := range v.Min {
		n, ok := toFloat(ctx[key])
		if !ok || n < floor {
			return false
		}
	}
	return true
}

func render(text string, ctx Context) (string, error) {
	if text == "" {
		return "", nil
	}
	tmpl, err := template.New("nudge").Funcs(templateFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, map[string]any(ctx)); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ValidateVariant parses a variant's templates without executing them.
func ValidateVariant(v Variant) error {
	for _, text := range []string{v.Title, v.Description} {
		if text == "" {
			continue
		}
		if _, err := template.New("nudge").Funcs(templateFuncs).Parse(text); err != nil {
			return err
		}
	}
	return nil
}

func plural(n any, one, many string) string {
	if f, ok := toFloat(n); ok && f == 1 {
		return one
	}
	return many
}

func formatName(v any) string {
	s := strings.ToLower(fmt.Sprint(v))
	switch s {
	case "csv":
		return "CSV"
	case "sheets":
		return "Google Sheets"
	case "pdf":
		return "PDF"
	default:
		return strings.ToUpper(s)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
