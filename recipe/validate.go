package recipe

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/docker/distribution/reference"
	"github.com/docker/go-connections/nat"

	"bakery/params"
)

var (
	argNameRegexp   = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	stageNameRegexp = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)
	signalRegexp    = regexp.MustCompile(`^(SIG[A-Z0-9]+|[0-9]+)$`)
)

// Validate checks the recipe model: argument and stage naming, image
// references, port syntax, probe flags, stop signals, and per-stage
// instruction cardinality. Variable references are expanded with the
// declared defaults before syntax checks.
func Validate(r Recipe) error {
	if r.Name == "" {
		return ErrNoName
	}
	if len(r.Stages) == 0 {
		return ErrNoStages
	}

	seen := map[string]bool{}
	for _, a := range r.Args {
		if !argNameRegexp.MatchString(a.Name) {
			return fmt.Errorf("recipe: invalid build arg name %q", a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("recipe: duplicate build arg %q", a.Name)
		}
		seen[a.Name] = true
	}

	for _, kv := range r.Labels {
		if kv.Key == "" {
			return fmt.Errorf("recipe: empty label key")
		}
	}

	defaults := r.ArgDefaults().Map()

	stages := map[string]int{}
	for idx, stage := range r.Stages {
		if !stageNameRegexp.MatchString(stage.Name) {
			return fmt.Errorf("recipe: invalid stage name %q", stage.Name)
		}
		if _, ok := stages[stage.Name]; ok {
			return fmt.Errorf("recipe: duplicate stage %q", stage.Name)
		}
		if err := validateStage(stage, idx, stages, defaults); err != nil {
			return ErrStage{Stage: stage.Name, Err: err}
		}
		stages[stage.Name] = idx
	}
	return nil
}

func validateStage(stage Stage, idx int, earlier map[string]int, defaults map[string]string) error {
	if stage.Image == "" {
		return fmt.Errorf("no base image")
	}

	// stage-local scope: declared defaults plus ARG and ENV seen so far
	vars := make(map[string]string, len(defaults))
	for k, v := range defaults {
		vars[k] = v
	}

	image, err := params.Expand(stage.Image, vars)
	if err != nil {
		return fmt.Errorf("image %q: %v", stage.Image, err)
	}
	if _, ok := earlier[image]; !ok {
		if _, err := reference.ParseNormalizedNamed(image); err != nil {
			return fmt.Errorf("image %q: %v", image, err)
		}
	}

	var counts [KindStopSignal + 1]int
	for _, in := range stage.Instructions {
		counts[in.Kind]++
		if err := validateInstruction(in, idx, earlier, vars); err != nil {
			return err
		}
		switch in.Kind {
		case KindArg:
			// a declared default wins over an in-stage redeclaration
			if len(in.Args) == 2 {
				if _, ok := vars[in.Args[0]]; !ok {
					vars[in.Args[0]] = in.Args[1]
				}
			}
		case KindEnv:
			value, err := params.Expand(in.Args[1], vars)
			if err != nil {
				return fmt.Errorf("ENV %s: %v", in.Args[0], err)
			}
			vars[in.Args[0]] = value
		}
	}

	for _, kind := range []Kind{KindCmd, KindEntrypoint, KindHealthcheck, KindStopSignal, KindShell} {
		if counts[kind] > 1 {
			return fmt.Errorf("%d %s instructions, at most one allowed", counts[kind], kind)
		}
	}
	return nil
}

func validateInstruction(in Instruction, idx int, earlier map[string]int, vars map[string]string) error {
	switch in.Kind {
	case KindRun:
		if len(in.Exec) == 0 && (len(in.Args) == 0 || in.Args[0] == "") {
			return fmt.Errorf("RUN: empty command")
		}
	case KindCopy, KindAdd:
		if len(in.Args) < 2 {
			return fmt.Errorf("%s: need source and destination", in.Kind)
		}
		if from, ok := in.flag("from"); ok && in.Kind == KindCopy {
			if err := validateCopyFrom(from, idx, earlier, vars); err != nil {
				return err
			}
		}
	case KindEnv, KindLabel:
		if len(in.Args) != 2 || in.Args[0] == "" {
			return fmt.Errorf("%s: need a key and a value", in.Kind)
		}
	case KindArg:
		if len(in.Args) == 0 || len(in.Args) > 2 || !argNameRegexp.MatchString(in.Args[0]) {
			return fmt.Errorf("ARG: invalid declaration %v", in.Args)
		}
	case KindWorkdir, KindUser:
		if len(in.Args) != 1 || in.Args[0] == "" {
			return fmt.Errorf("%s: empty argument", in.Kind)
		}
	case KindExpose:
		if len(in.Args) != 1 {
			return fmt.Errorf("EXPOSE: need one port")
		}
		spec, err := params.Expand(in.Args[0], vars)
		if err != nil {
			return fmt.Errorf("EXPOSE %s: %v", in.Args[0], err)
		}
		proto, port := nat.SplitProtoPort(spec)
		if _, err := nat.NewPort(proto, port); err != nil {
			return fmt.Errorf("EXPOSE %s: %v", spec, err)
		}
	case KindVolume:
		if len(in.Args) == 0 {
			return fmt.Errorf("VOLUME: no paths")
		}
	case KindHealthcheck:
		return validateHealthcheck(in)
	case KindEntrypoint, KindCmd:
		if len(in.Exec) == 0 && len(in.Args) == 0 {
			return fmt.Errorf("%s: empty", in.Kind)
		}
	case KindShell:
		if len(in.Exec) == 0 {
			return fmt.Errorf("SHELL: exec form required")
		}
	case KindStopSignal:
		if len(in.Args) != 1 || !signalRegexp.MatchString(in.Args[0]) {
			return fmt.Errorf("STOPSIGNAL: invalid signal %v", in.Args)
		}
	}
	return nil
}

func validateCopyFrom(from string, idx int, earlier map[string]int, vars map[string]string) error {
	from, err := params.Expand(from, vars)
	if err != nil {
		return fmt.Errorf("COPY --from=%s: %v", from, err)
	}
	if _, ok := earlier[from]; ok {
		return nil
	}
	if n, err := strconv.Atoi(from); err == nil {
		if n < 0 || n >= idx {
			return fmt.Errorf("COPY --from=%d: no such stage", n)
		}
		return nil
	}
	if _, err := reference.ParseNormalizedNamed(from); err != nil {
		return fmt.Errorf("COPY --from=%s: %v", from, err)
	}
	return nil
}

func validateHealthcheck(in Instruction) error {
	if len(in.Args) == 1 && in.Args[0] == "NONE" {
		if len(in.Exec) != 0 || len(in.Flags) != 0 {
			return fmt.Errorf("HEALTHCHECK NONE: no test or flags allowed")
		}
		return nil
	}
	if len(in.Exec) == 0 {
		return fmt.Errorf("HEALTHCHECK: no test command")
	}
	for _, key := range []string{"interval", "timeout", "start-period"} {
		value, ok := in.flag(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("HEALTHCHECK --%s=%s: %v", key, value, err)
		}
		if d < time.Millisecond {
			return fmt.Errorf("HEALTHCHECK --%s=%s: below 1ms", key, value)
		}
	}
	if value, ok := in.flag("retries"); ok {
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("HEALTHCHECK --retries=%s: need a positive count", value)
		}
	}
	return nil
}
