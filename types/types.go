package types

import (
	"math/rand"
	"strconv"
)

type ID string

type JobKind string

const (
	JobRender JobKind = "render"
	JobLint   JobKind = "lint"
	JobVerify JobKind = "verify"
	JobBuild  JobKind = "build"
	JobExport JobKind = "export"
)

type Job struct {
	ID     ID      `json:"id"`
	Recipe string  `json:"recipe"`
	Kind   JobKind `json:"kind"`
}

type Step struct {
	JobID    ID     `json:"job-id"`
	Recipe   string `json:"recipe"`
	Name     string `json:"name"`
	Attempt  int    `json:"attempt,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

type ArgInfo struct {
	Name    string `json:"name"`
	Default string `json:"default"`
	Purpose string `json:"purpose,omitempty"`
}

type RecipeInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Stages      []string  `json:"stages"`
	Args        []ArgInfo `json:"args,omitempty"`
}

func NewID() (ID, error) {
	id := rand.Uint64()
	return ID(strconv.FormatUint(id, 8)), nil
}
