package lint

import (
	"fmt"
	"sort"
	"sync"

	"bakery/recipe"
)

type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
)

// Finding is one rule violation. Check and Recipe are stamped by Run.
type Finding struct {
	Check    string   `json:"check"`
	Severity Severity `json:"severity"`
	Recipe   string   `json:"recipe"`
	Stage    string   `json:"stage,omitempty"`
	Message  string   `json:"message"`
}

// Check inspects a recipe and reports violations.
type Check interface {
	Name() string
	Check(recipe.Recipe) []Finding
}

var (
	mtx    sync.Mutex
	checks = make(map[string]Check)
)

// Register adds a check. Duplicate names are a programmer error.
func Register(c Check) {
	mtx.Lock()
	defer mtx.Unlock()
	if _, ok := checks[c.Name()]; ok {
		panic(fmt.Sprintf("lint: duplicate check %q", c.Name()))
	}
	checks[c.Name()] = c
}

// Checks returns the registered checks sorted by name.
func Checks() []Check {
	mtx.Lock()
	defer mtx.Unlock()
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Check, 0, len(names))
	for _, name := range names {
		out = append(out, checks[name])
	}
	return out
}

// Run applies the given checks, or all registered ones when none are
// given.
func Run(r recipe.Recipe, selected ...Check) []Finding {
	if len(selected) == 0 {
		selected = Checks()
	}
	var findings []Finding
	for _, c := range selected {
		for _, f := range c.Check(r) {
			f.Check = c.Name()
			f.Recipe = r.Name
			findings = append(findings, f)
		}
	}
	return findings
}

// HasErrors reports whether any finding is error severity.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == Error {
			return true
		}
	}
	return false
}

// MakeCheck wraps a function as a named Check.
func MakeCheck(name string, fn func(recipe.Recipe) []Finding) Check {
	return check{name: name, fn: fn}
}

type check struct {
	name string
	fn   func(recipe.Recipe) []Finding
}

func (c check) Name() string                    { return c.name }
func (c check) Check(r recipe.Recipe) []Finding { return c.fn(r) }
