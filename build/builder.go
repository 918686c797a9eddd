package build

import (
	"context"
	"io"
	"time"

	"github.com/docker/distribution/reference"
	dtypes "github.com/docker/docker/api/types"
	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"

	"bakery/docs"
	"bakery/params"
	"bakery/pubsub"
	"bakery/recipe"
	"bakery/render"
	"bakery/types"
)

// Labels stamped onto every built image.
const (
	LabelRecipe = "bakery.io.recipe"
	LabelJob    = "bakery.io.job"
)

type Request struct {
	Recipe     recipe.Recipe
	Params     params.Params
	Tag        string
	Pull       bool
	NoCache    bool
	Memory     int64
	Network    string
	ContextDir string
}

type Result struct {
	ImageID  string        `json:"image-id"`
	Tag      string        `json:"tag"`
	Size     int64         `json:"size"`
	Duration time.Duration `json:"duration"`
}

type Builder interface {
	Build(context.Context, Request) (*Result, error)
}

func NewBuilder(log logrus.FieldLogger, node Node, bus pubsub.Writer) Builder {
	return &builder{
		node: node,
		bus:  bus,
		log:  log.WithField("component", "builder"),
	}
}

type builder struct {
	node Node
	bus  pubsub.Writer
	log  logrus.FieldLogger
}

func (b *builder) Build(ctx context.Context, req Request) (res *Result, err error) {
	id, err := types.NewID()
	if err != nil {
		return nil, err
	}

	log := b.log.WithField("recipe", req.Recipe.Name).WithField("job", id)

	b.publish(types.Event{
		Type:   types.EventTypeJob,
		Action: types.EventActionStart,
		Job:    &types.Job{ID: id, Recipe: req.Recipe.Name, Kind: types.JobBuild},
		Status: types.StatusInProgress,
	})
	defer func() {
		b.done(id, req.Recipe.Name, err)
	}()

	tag, err := NormalizeTag(req.Tag)
	if err != nil {
		log.WithError(err).Errorf("parsing tag '%s'", req.Tag)
		return nil, err
	}

	dockerfile, err := b.renderStep(log, id, req)
	if err != nil {
		return nil, err
	}

	bctx, err := b.contextStep(log, id, req, dockerfile)
	if err != nil {
		return nil, err
	}

	buildArgs := make(map[string]*string)
	for _, kv := range req.Recipe.ArgOverrides(req.Params) {
		value := kv.Value
		buildArgs[kv.Key] = &value
	}

	labels := map[string]string{
		LabelRecipe: req.Recipe.Name,
		LabelJob:    string(id),
	}
	for _, kv := range req.Params.Labels {
		labels[kv.Key] = kv.Value
	}

	opts := dtypes.ImageBuildOptions{
		Tags:        []string{tag},
		Dockerfile:  docs.DockerfileName,
		BuildArgs:   buildArgs,
		NoCache:     req.NoCache,
		PullParent:  req.Pull,
		Memory:      req.Memory,
		NetworkMode: req.Network,
		Labels:      labels,
		Remove:      true,
	}

	b.stepStart(id, req.Recipe.Name, "build")
	started := time.Now()

	resp, err := b.node.Client().ImageBuild(ctx, bctx, opts)
	if err != nil {
		log.WithError(err).Error("starting image build")
		b.stepDone(id, req.Recipe.Name, "build", err)
		return nil, err
	}
	defer resp.Body.Close()

	imageID, err := b.stream(log, id, req.Recipe.Name, resp.Body)
	b.stepDone(id, req.Recipe.Name, "build", err)
	if err != nil {
		return nil, err
	}

	lookup := imageID
	if lookup == "" {
		lookup = tag
	}
	info, _, err := b.node.Client().ImageInspectWithRaw(ctx, lookup)
	if err != nil {
		log.WithError(err).Error("inspecting built image")
		return nil, err
	}

	res = &Result{
		ImageID:  info.ID,
		Tag:      tag,
		Size:     info.Size,
		Duration: time.Since(started),
	}

	log.WithField("image", res.ImageID).
		WithField("size", units.HumanSize(float64(res.Size))).
		Infof("built %v in %v", tag, res.Duration.Truncate(time.Millisecond))

	return res, nil
}

// renderStep produces the Dockerfile for the daemon. Argument values stay
// unexpanded; the daemon substitutes BuildArgs itself.
func (b *builder) renderStep(log logrus.FieldLogger, id types.ID, req Request) ([]byte, error) {
	b.stepStart(id, req.Recipe.Name, "render")

	dockerfile, err := renderDockerfile(req)

	b.stepDone(id, req.Recipe.Name, "render", err)
	if err != nil {
		log.WithError(err).Error("rendering dockerfile")
		return nil, err
	}
	return dockerfile, nil
}

func renderDockerfile(req Request) ([]byte, error) {
	if err := recipe.Validate(req.Recipe); err != nil {
		return nil, err
	}
	if _, err := req.Recipe.ResolveArgs(req.Recipe.ArgOverrides(req.Params)); err != nil {
		return nil, err
	}
	renderer, err := render.New()
	if err != nil {
		return nil, err
	}
	return renderer.Dockerfile(req.Recipe)
}

func (b *builder) contextStep(log logrus.FieldLogger, id types.ID, req Request, dockerfile []byte) (io.Reader, error) {
	b.stepStart(id, req.Recipe.Name, "context")

	bctx, err := newContext(dockerfile, req.ContextDir)

	b.stepDone(id, req.Recipe.Name, "context", err)
	if err != nil {
		log.WithError(err).Errorf("assembling build context '%s'", req.ContextDir)
		return nil, err
	}
	return bctx, nil
}

func (b *builder) publish(ev types.BusEvent) {
	if b.bus == nil {
		return
	}
	if err := b.bus.Publish(ev); err != nil {
		b.log.WithError(err).Warn("publishing event")
	}
}

func (b *builder) stepStart(id types.ID, recipeName, step string) {
	b.publish(types.Event{
		Type:   types.EventTypeStep,
		Action: types.EventActionStart,
		Step:   &types.Step{JobID: id, Recipe: recipeName, Name: step},
		Status: types.StatusInProgress,
	})
}

func (b *builder) stepDone(id types.ID, recipeName, step string, err error) {
	ev := types.Event{
		Type:   types.EventTypeStep,
		Action: types.EventActionDone,
		Step:   &types.Step{JobID: id, Recipe: recipeName, Name: step},
		Status: types.StatusSuccess,
	}
	if err != nil {
		ev.Status = types.StatusFailure
		ev.Message = err.Error()
	}
	b.publish(ev)
}

func (b *builder) done(id types.ID, recipeName string, err error) {
	ev := types.Event{
		Type:   types.EventTypeJob,
		Action: types.EventActionDone,
		Job:    &types.Job{ID: id, Recipe: recipeName, Kind: types.JobBuild},
		Status: types.StatusSuccess,
	}
	if err != nil {
		ev.Status = types.StatusFailure
		ev.Message = err.Error()
	}
	b.publish(ev)
}

// NormalizeTag parses a tag the way the engine does and pins the default
// ("latest") tag when none was given.
func NormalizeTag(tag string) (string, error) {
	named, err := reference.ParseNormalizedNamed(tag)
	if err != nil {
		return "", err
	}
	return reference.TagNameOnly(named).String(), nil
}
