package lint

import (
	"fmt"
	"strings"

	"github.com/docker/distribution/reference"

	"bakery/params"
	"bakery/recipe"
)

func init() {
	Register(MakeCheck("nonroot-user", checkNonrootUser))
	Register(MakeCheck("healthcheck", checkHealthcheck))
	Register(MakeCheck("pinned-image", checkPinnedImage))
	Register(MakeCheck("exposed-port", checkExposedPort))
	Register(MakeCheck("no-secret-args", checkSecretArgs))
	Register(MakeCheck("prefer-copy", checkPreferCopy))
	Register(MakeCheck("workdir-absolute", checkWorkdirAbsolute))
	Register(MakeCheck("duplicate-env", checkDuplicateEnv))
}

// checkNonrootUser requires the runtime stage to drop root.
func checkNonrootUser(r recipe.Recipe) []Finding {
	stage := r.Runtime()
	user := ""
	for _, in := range stage.Instructions {
		if in.Kind == recipe.KindUser && len(in.Args) == 1 {
			user = in.Args[0]
		}
	}
	if user == "" {
		return []Finding{{
			Severity: Error,
			Stage:    stage.Name,
			Message:  "runtime stage never sets USER; the container runs as root",
		}}
	}
	name := user
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	if name == "root" || name == "0" {
		return []Finding{{
			Severity: Error,
			Stage:    stage.Name,
			Message:  fmt.Sprintf("runtime stage sets USER %s", user),
		}}
	}
	return nil
}

// checkHealthcheck wants the runtime stage to carry a probe.
func checkHealthcheck(r recipe.Recipe) []Finding {
	stage := r.Runtime()
	for _, in := range stage.Instructions {
		if in.Kind == recipe.KindHealthcheck && len(in.Exec) > 0 {
			return nil
		}
	}
	return []Finding{{
		Severity: Warning,
		Stage:    stage.Name,
		Message:  "runtime stage declares no healthcheck",
	}}
}

// checkPinnedImage rejects untagged and latest-tagged base images. Argument
// references expand through the declared defaults first.
func checkPinnedImage(r recipe.Recipe) []Finding {
	defaults := r.ArgDefaults().Map()
	stages := map[string]bool{}

	var findings []Finding
	for _, stage := range r.Stages {
		image, err := params.Expand(stage.Image, defaults)
		if err == nil && !stages[image] {
			findings = append(findings, pinFinding(stage.Name, image)...)
		}
		stages[stage.Name] = true
	}
	return findings
}

func pinFinding(stage, image string) []Finding {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return []Finding{{
			Severity: Error,
			Stage:    stage,
			Message:  fmt.Sprintf("unparseable image reference %q: %v", image, err),
		}}
	}
	if _, ok := named.(reference.Digested); ok {
		return nil
	}
	if reference.IsNameOnly(named) {
		return []Finding{{
			Severity: Error,
			Stage:    stage,
			Message:  fmt.Sprintf("image %q has no tag; builds are not reproducible", image),
		}}
	}
	if tagged, ok := named.(reference.Tagged); ok && tagged.Tag() == "latest" {
		return []Finding{{
			Severity: Error,
			Stage:    stage,
			Message:  fmt.Sprintf("image %q floats on latest; pin a version", image),
		}}
	}
	return nil
}

// checkExposedPort wants the runtime stage to document its ports.
func checkExposedPort(r recipe.Recipe) []Finding {
	stage := r.Runtime()
	for _, in := range stage.Instructions {
		if in.Kind == recipe.KindExpose {
			return nil
		}
	}
	return []Finding{{
		Severity: Warning,
		Stage:    stage.Name,
		Message:  "runtime stage exposes no ports",
	}}
}

var secretHints = []string{"PASSWORD", "PASSWD", "SECRET", "TOKEN", "KEY", "CREDENTIAL"}

// checkSecretArgs flags build args that look like credentials. Build args
// persist in the image history.
func checkSecretArgs(r recipe.Recipe) []Finding {
	var findings []Finding
	flag := func(stage, name string) {
		upper := strings.ToUpper(name)
		for _, hint := range secretHints {
			if strings.Contains(upper, hint) {
				findings = append(findings, Finding{
					Severity: Error,
					Stage:    stage,
					Message:  fmt.Sprintf("build arg %q looks like a secret; args persist in image history", name),
				})
				return
			}
		}
	}
	for _, a := range r.Args {
		flag("", a.Name)
	}
	for _, stage := range r.Stages {
		for _, in := range stage.Instructions {
			if in.Kind == recipe.KindArg && len(in.Args) > 0 {
				flag(stage.Name, in.Args[0])
			}
		}
	}
	return findings
}

// checkPreferCopy flags ADD where COPY would do: no remote source, no
// archive to extract.
func checkPreferCopy(r recipe.Recipe) []Finding {
	var findings []Finding
	for _, stage := range r.Stages {
		for _, in := range stage.Instructions {
			if in.Kind != recipe.KindAdd || len(in.Args) < 2 {
				continue
			}
			if addJustified(in.Args[:len(in.Args)-1]) {
				continue
			}
			findings = append(findings, Finding{
				Severity: Warning,
				Stage:    stage.Name,
				Message:  "ADD used where COPY suffices",
			})
		}
	}
	return findings
}

func addJustified(sources []string) bool {
	for _, src := range sources {
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			return true
		}
		for _, ext := range []string{".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tar.xz", ".txz"} {
			if strings.HasSuffix(src, ext) {
				return true
			}
		}
	}
	return false
}

// checkWorkdirAbsolute flags relative working directories.
func checkWorkdirAbsolute(r recipe.Recipe) []Finding {
	var findings []Finding
	for _, stage := range r.Stages {
		for _, in := range stage.Instructions {
			if in.Kind != recipe.KindWorkdir || len(in.Args) != 1 {
				continue
			}
			path := in.Args[0]
			if strings.HasPrefix(path, "/") || strings.HasPrefix(path, "$") {
				continue
			}
			findings = append(findings, Finding{
				Severity: Warning,
				Stage:    stage.Name,
				Message:  fmt.Sprintf("WORKDIR %s is relative", path),
			})
		}
	}
	return findings
}

// checkDuplicateEnv flags keys set twice in one stage. The last value wins
// at runtime, which usually means one of them is stale.
func checkDuplicateEnv(r recipe.Recipe) []Finding {
	var findings []Finding
	for _, stage := range r.Stages {
		seen := map[string]bool{}
		for _, in := range stage.Instructions {
			if in.Kind != recipe.KindEnv || len(in.Args) != 2 {
				continue
			}
			key := in.Args[0]
			if seen[key] {
				findings = append(findings, Finding{
					Severity: Warning,
					Stage:    stage.Name,
					Message:  fmt.Sprintf("ENV %s set more than once; the last value wins", key),
				})
			}
			seen[key] = true
		}
	}
	return findings
}
