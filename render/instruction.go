package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bakery/params"
	"bakery/recipe"
)

// Line renders a single instruction without expansion. The docs rationale
// lists quote instructions through this.
func Line(in recipe.Instruction) (string, error) {
	r := renderer{}
	return r.line(in, nil)
}

func (r *renderer) line(in recipe.Instruction, vars map[string]string) (string, error) {
	expand := func(s string) (string, error) {
		if vars == nil {
			return s, nil
		}
		return params.ExpandPreserve(s, vars)
	}

	args := make([]string, len(in.Args))
	for i, a := range in.Args {
		expanded, err := expand(a)
		if err != nil {
			return "", err
		}
		args[i] = expanded
	}

	var exec []string
	if in.Exec != nil {
		exec = make([]string, len(in.Exec))
		for i, a := range in.Exec {
			expanded, err := expand(a)
			if err != nil {
				return "", err
			}
			exec[i] = expanded
		}
	}

	parts := []string{in.Kind.String()}
	for _, kv := range in.Flags {
		value, err := expand(kv.Value)
		if err != nil {
			return "", err
		}
		parts = append(parts, "--"+kv.Key+"="+value)
	}

	switch in.Kind {
	case recipe.KindRun, recipe.KindCmd, recipe.KindEntrypoint, recipe.KindShell:
		if exec != nil {
			encoded, err := execForm(exec)
			if err != nil {
				return "", err
			}
			parts = append(parts, encoded)
		} else {
			parts = append(parts, args...)
		}
	case recipe.KindEnv, recipe.KindArg, recipe.KindLabel:
		parts = append(parts, pair(args))
	case recipe.KindHealthcheck:
		if exec == nil {
			// HEALTHCHECK NONE
			parts = append(parts, args...)
			break
		}
		test, err := healthcheckTest(exec)
		if err != nil {
			return "", err
		}
		parts = append(parts, test)
	default:
		parts = append(parts, args...)
	}

	return strings.Join(parts, " "), nil
}

// pair renders KEY or KEY=value with quoting when the value needs it.
func pair(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return args[0] + "=" + quote(args[1])
}

func quote(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsAny(value, " \t\"'\\#") {
		return strconv.Quote(value)
	}
	return value
}

func execForm(argv []string) (string, error) {
	encoded, err := json.Marshal(argv)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// healthcheckTest renders the probe command from its HealthConfig-style
// test slice: ["CMD", ...] exec form, ["CMD-SHELL", cmd] shell form.
func healthcheckTest(test []string) (string, error) {
	if len(test) == 0 {
		return "", fmt.Errorf("render: empty healthcheck test")
	}
	switch test[0] {
	case "CMD-SHELL":
		return "CMD " + strings.Join(test[1:], " "), nil
	case "CMD":
		encoded, err := execForm(test[1:])
		if err != nil {
			return "", err
		}
		return "CMD " + encoded, nil
	default:
		encoded, err := execForm(test)
		if err != nil {
			return "", err
		}
		return "CMD " + encoded, nil
	}
}
