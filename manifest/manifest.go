package manifest

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"

	"github.com/buger/jsonparser"
	"github.com/docker/go-units"
	"github.com/ghodss/yaml"
	"github.com/sirupsen/logrus"

	"bakery/params"
)

// Render is one manifest entry: a recipe plus the parameters to render or
// build it with.
type Render struct {
	Name     string
	Recipe   string
	Args     params.Pairs
	Env      params.Pairs
	Labels   params.Pairs
	Annotate bool
	EnvFile  string
	Output   string
	Build    *BuildSpec

	log logrus.FieldLogger
}

// BuildSpec carries the docker build half of an entry.
type BuildSpec struct {
	Tag     string
	Pull    bool
	NoCache bool
	Memory  string
	Network string
}

// MemoryBytes parses the human memory limit ("512m").
func (b *BuildSpec) MemoryBytes() (int64, error) {
	if b == nil || b.Memory == "" {
		return 0, nil
	}
	return units.RAMInBytes(b.Memory)
}

// Params assembles the substitution parameters. Env-file values load
// first; inline values win.
func (r *Render) Params() (params.Params, error) {
	env := params.Pairs{}
	if r.EnvFile != "" {
		fileEnv, err := params.LoadEnvFile(r.EnvFile)
		if err != nil {
			return params.Params{}, err
		}
		env = fileEnv
	}
	env = env.Merge(r.Env)
	return params.Params{Args: r.Args, Env: env, Labels: r.Labels}, nil
}

func (r *Render) Log() logrus.FieldLogger {
	return r.log
}

// ReadFile loads a manifest. YAML converts to JSON first; everything else
// is parsed as JSON directly. Relative env-file paths resolve against the
// manifest's directory.
func ReadFile(log logrus.FieldLogger, path string) ([]*Render, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		buf, err = yaml.YAMLToJSON(buf)
		if err != nil {
			return nil, err
		}
	}

	renders, err := ParseAll(log, buf)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for _, r := range renders {
		if r.EnvFile != "" && !filepath.IsAbs(r.EnvFile) {
			r.EnvFile = filepath.Join(dir, r.EnvFile)
		}
	}
	return renders, nil
}

// ParseAll walks the renders object; keys are entry names.
func ParseAll(log logrus.FieldLogger, buf []byte) ([]*Render, error) {
	var renders []*Render
	err := jsonparser.ObjectEach(buf, func(key []byte, buf []byte, dt jsonparser.ValueType, _ int) error {
		render, err := Parse(log, string(key), buf)
		if err != nil {
			return err
		}
		renders = append(renders, render)
		return nil
	}, "renders")
	return renders, err
}

func Parse(log logrus.FieldLogger, name string, buf []byte) (*Render, error) {

	log = log.WithField("render", name).WithField("component", "manifest.Parse")

	if name == "" {
		err := fmt.Errorf("manifest: empty render name")
		log.WithError(err).Error("parsing name")
		return nil, err
	}

	recipe, err := jsonparser.GetString(buf, "recipe")
	if err != nil {
		log.WithError(err).Error("parsing recipe")
		return nil, err
	}

	args, err := parsePairs(buf, "args")
	if err != nil {
		log.WithError(err).Error("parsing args")
		return nil, err
	}

	env, err := parsePairs(buf, "env")
	if err != nil {
		log.WithError(err).Error("parsing env")
		return nil, err
	}

	labels, err := parsePairs(buf, "labels")
	if err != nil {
		log.WithError(err).Error("parsing labels")
		return nil, err
	}

	annotate, err := getBool(buf, "annotate")
	if err != nil {
		log.WithError(err).Error("parsing annotate")
		return nil, err
	}

	envFile, err := getString(buf, "env_file")
	if err != nil {
		log.WithError(err).Error("parsing env_file")
		return nil, err
	}

	output, err := getString(buf, "output")
	if err != nil {
		log.WithError(err).Error("parsing output")
		return nil, err
	}

	build, err := parseBuild(log, buf)
	if err != nil {
		return nil, err
	}

	return &Render{
		Name:     name,
		Recipe:   recipe,
		Args:     args,
		Env:      env,
		Labels:   labels,
		Annotate: annotate,
		EnvFile:  envFile,
		Output:   output,
		Build:    build,
		log:      log,
	}, nil
}

func parseBuild(log logrus.FieldLogger, buf []byte) (*BuildSpec, error) {
	buildBuf, vt, _, err := jsonparser.Get(buf, "build")
	if vt == jsonparser.NotExist && err == jsonparser.KeyPathNotFoundError {
		return nil, nil
	} else if err != nil {
		log.WithError(err).Error("parsing build")
		return nil, err
	}

	tag, err := jsonparser.GetString(buildBuf, "tag")
	if err != nil {
		log.WithError(err).Error("parsing build tag")
		return nil, err
	}

	pull, err := getBool(buildBuf, "pull")
	if err != nil {
		log.WithError(err).Error("parsing build pull")
		return nil, err
	}

	noCache, err := getBool(buildBuf, "no_cache")
	if err != nil {
		log.WithError(err).Error("parsing build no_cache")
		return nil, err
	}

	memory, err := getString(buildBuf, "memory")
	if err != nil {
		log.WithError(err).Error("parsing build memory")
		return nil, err
	}

	network, err := getString(buildBuf, "network")
	if err != nil {
		log.WithError(err).Error("parsing build network")
		return nil, err
	}

	return &BuildSpec{
		Tag:     tag,
		Pull:    pull,
		NoCache: noCache,
		Memory:  memory,
		Network: network,
	}, nil
}

// parsePairs reads a JSON object into sorted pairs. Number and boolean
// values stringify; nested structures are rejected.
func parsePairs(buf []byte, key string) (params.Pairs, error) {
	objBuf, vt, _, err := jsonparser.Get(buf, key)
	if vt == jsonparser.NotExist && err == jsonparser.KeyPathNotFoundError {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var pairs params.Pairs
	err = jsonparser.ObjectEach(objBuf, func(name []byte, value []byte, dt jsonparser.ValueType, _ int) error {
		switch dt {
		case jsonparser.String:
			parsed, err := jsonparser.ParseString(value)
			if err != nil {
				return err
			}
			pairs = append(pairs, params.KeyValue{Key: string(name), Value: parsed})
		case jsonparser.Number, jsonparser.Boolean:
			pairs = append(pairs, params.KeyValue{Key: string(name), Value: string(value)})
		default:
			return fmt.Errorf("manifest: %s.%s: scalar value required", key, string(name))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs, nil
}

func getString(buf []byte, key string) (string, error) {
	value, err := jsonparser.GetString(buf, key)
	if err == jsonparser.KeyPathNotFoundError {
		return "", nil
	}
	return value, err
}

func getBool(buf []byte, key string) (bool, error) {
	value, err := jsonparser.GetBoolean(buf, key)
	if err == jsonparser.KeyPathNotFoundError {
		return false, nil
	}
	return value, err
}
