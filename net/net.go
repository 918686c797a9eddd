package net

import (
	"net/url"

	"bakery/params"
)

const (
	DefaultPort = 6630

	DefaultListenAddress  = ":6630"
	DefaultConnectAddress = "http://localhost:6630"

	RPCContentType = "application/json"
)

// RenderQuery selects how a recipe's Dockerfile is rendered over the wire.
type RenderQuery struct {
	Annotate bool
	Expand   bool
	Args     params.Pairs
}

// Values encodes the query the way the server parses it.
func (q RenderQuery) Values() url.Values {
	vals := url.Values{}
	if q.Annotate {
		vals.Set("annotate", "1")
	}
	if q.Expand {
		vals.Set("expand", "1")
	}
	for _, kv := range q.Args {
		vals.Add("arg", kv.Key+"="+kv.Value)
	}
	return vals
}

// RenderRequest is the render RPC body. It carries the same fields as a
// manifest entry, minus the ones that only make sense next to a file on
// disk (env_file, output, build).
type RenderRequest struct {
	Recipe   string            `json:"recipe"`
	Args     map[string]string `json:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
	Annotate bool              `json:"annotate,omitempty"`
}

// Params converts the request maps to ordered pairs.
func (r RenderRequest) Params() params.Params {
	return params.Params{
		Args:   params.FromMap(r.Args),
		Env:    params.FromMap(r.Env),
		Labels: params.FromMap(r.Labels),
	}
}

// VerifyRequest is the verify RPC body. Recipes are checked in-memory
// against their own documentation; artifacts are submitted file contents
// checked against a fresh render. An empty request verifies the whole
// catalog.
type VerifyRequest struct {
	Recipes   []string         `json:"recipes,omitempty"`
	Artifacts []VerifyArtifact `json:"artifacts,omitempty"`
}

type VerifyArtifact struct {
	Recipe     string `json:"recipe"`
	Dockerfile []byte `json:"dockerfile,omitempty"`
	Readme     []byte `json:"readme,omitempty"`
}

func (v VerifyRequest) Empty() bool {
	return len(v.Recipes) == 0 && len(v.Artifacts) == 0
}
