package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"bakery/catalog"
	"bakery/docs"
	"bakery/lint"
	"bakery/log"
	enet "bakery/net"
	"bakery/params"
	"bakery/pubsub"
	"bakery/recipe"
	"bakery/render"
	"bakery/types"
	"bakery/verify"
)

type Server interface {
	Address() string
	Run()
	Close()
}

type Opt func(*server) error

func WithAddress(address string) Opt {
	return func(s *server) error {
		s.address = address
		return nil
	}
}

func WithCatalog(c catalog.Catalog) Opt {
	return func(s *server) error {
		s.catalog = c
		return nil
	}
}

// WithBus announces request work as job events, so attached UIs and the
// event log see server activity.
func WithBus(bus pubsub.Writer) Opt {
	return func(s *server) error {
		s.bus = bus
		return nil
	}
}

func WithLog(l logrus.FieldLogger) Opt {
	return func(s *server) error {
		s.l = l
		return nil
	}
}

type server struct {
	address string
	catalog catalog.Catalog
	bus     pubsub.Writer
	l       logrus.FieldLogger

	listener *net.TCPListener
	srv      *http.Server
}

func New(opts ...Opt) (Server, error) {

	s := &server{
		address: enet.DefaultListenAddress,
		catalog: catalog.Default(),
		l:       log.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.l = s.l.WithField("component", "server")

	r := mux.NewRouter()

	r.HandleFunc("/recipes", s.handleRecipeList).
		Methods("GET")

	r.HandleFunc("/recipe/{name}", s.handleRecipeShow).
		Methods("GET")

	r.HandleFunc("/recipe/{name}/dockerfile", s.handleRecipeDockerfile).
		Methods("GET")

	r.HandleFunc("/recipe/{name}/docs", s.handleRecipeDocs).
		Methods("GET")

	r.HandleFunc("/recipe/{name}/lint", s.handleRecipeLint).
		Methods("GET")

	r.HandleFunc("/render", s.handleRender).
		Methods("POST")

	r.HandleFunc("/verify", s.handleVerify).
		Methods("POST")

	l, err := net.Listen("tcp", s.address)
	if err != nil {
		return nil, err
	}

	s.listener = l.(*net.TCPListener)

	s.srv = &http.Server{
		Handler: r,
	}

	return s, nil
}

func (s *server) Run() {
	s.l.WithField("address", s.Address()).Info("listening")
	s.srv.Serve(s.listener)
}

func (s *server) Close() {
	s.listener.Close()
}

func (s *server) Address() string {
	return s.listener.Addr().String()
}

func (s *server) handleRecipeList(w http.ResponseWriter, r *http.Request) {
	infos := make([]types.RecipeInfo, 0)
	for _, name := range s.catalog.Names() {
		p, err := s.catalog.Lookup(name)
		if err != nil {
			continue
		}
		infos = append(infos, p.New().Info())
	}
	s.writeJSON(w, infos)
}

func (s *server) handleRecipeShow(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupRecipe(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, rec.Info())
}

func (s *server) handleRecipeDockerfile(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupRecipe(w, r)
	if !ok {
		return
	}

	args, err := params.ParseKVs(r.URL.Query()["arg"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	renderer, err := render.New(
		render.WithAnnotations(queryBool(r, "annotate")),
		render.WithExpand(queryBool(r, "expand")),
		render.WithArgs(args),
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	buf, err := renderer.Dockerfile(rec)
	if err != nil {
		s.renderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(buf)
}

func (s *server) handleRecipeDocs(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupRecipe(w, r)
	if !ok {
		return
	}

	buf, err := docs.Markdown(rec)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write(buf)
}

func (s *server) handleRecipeLint(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupRecipe(w, r)
	if !ok {
		return
	}

	findings := lint.Run(rec)
	if findings == nil {
		findings = make([]lint.Finding, 0)
	}
	s.writeJSON(w, findings)
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req enet.RenderRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := s.catalog.Lookup(req.Recipe)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	done := s.jobStart(types.JobRender, req.Recipe)

	files, err := docs.FilesWith(p.New(), req.Params(), req.Annotate)
	done(err)
	if err != nil {
		s.renderError(w, err)
		return
	}

	s.writeJSON(w, files)
}

func (s *server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req enet.VerifyRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	label := ""
	if len(req.Recipes) == 1 && len(req.Artifacts) == 0 {
		label = req.Recipes[0]
	}
	done := s.jobStart(types.JobVerify, label)

	reports, err := s.runVerify(r.Context(), req)
	done(err)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.writeJSON(w, reports)
}

func (s *server) runVerify(ctx context.Context, req enet.VerifyRequest) ([]verify.Report, error) {
	if req.Empty() {
		return verify.All(ctx, s.catalog, nil)
	}

	var reports []verify.Report

	if len(req.Recipes) > 0 {
		checked, err := verify.All(ctx, s.catalog, req.Recipes)
		if err != nil {
			return nil, err
		}
		reports = checked
	}

	for _, a := range req.Artifacts {
		var files []docs.File
		if a.Dockerfile != nil {
			files = append(files, docs.File{Name: docs.DockerfileName, Data: a.Dockerfile})
		}
		if a.Readme != nil {
			files = append(files, docs.File{Name: docs.ReadmeName, Data: a.Readme})
		}
		report, err := verify.Artifacts(s.catalog, a.Recipe, files)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// lookupRecipe resolves the route's {name}. A miss writes the 404.
func (s *server) lookupRecipe(w http.ResponseWriter, r *http.Request) (recipe.Recipe, bool) {
	name := mux.Vars(r)["name"]
	p, err := s.catalog.Lookup(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return recipe.Recipe{}, false
	}
	return p.New(), true
}

// renderError distinguishes caller mistakes (unknown build argument) from
// recipe failures.
func (s *server) renderError(w http.ResponseWriter, err error) {
	if _, ok := err.(recipe.ErrUnknownArg); ok {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *server) writeJSON(w http.ResponseWriter, obj interface{}) {
	buf, err := json.Marshal(obj)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", enet.RPCContentType)
	w.Write(buf)
}

func (s *server) jobStart(kind types.JobKind, recipeName string) func(error) {
	if s.bus == nil {
		return func(error) {}
	}
	id, err := types.NewID()
	if err != nil {
		return func(error) {}
	}

	job := &types.Job{ID: id, Recipe: recipeName, Kind: kind}
	s.publish(types.Event{
		Type:   types.EventTypeJob,
		Action: types.EventActionStart,
		Job:    job,
		Status: types.StatusInProgress,
	})

	return func(err error) {
		ev := types.Event{
			Type:   types.EventTypeJob,
			Action: types.EventActionDone,
			Job:    job,
			Status: types.StatusSuccess,
		}
		if err != nil {
			ev.Status = types.StatusFailure
			ev.Message = err.Error()
		}
		s.publish(ev)
	}
}

func (s *server) publish(ev types.BusEvent) {
	if err := s.bus.Publish(ev); err != nil {
		s.l.WithError(err).Warn("publishing event")
	}
}

func queryBool(r *http.Request, key string) bool {
	vals, ok := r.URL.Query()[key]
	if !ok || len(vals) == 0 {
		return false
	}
	if vals[0] == "" {
		return true
	}
	b, err := strconv.ParseBool(vals[0])
	return err == nil && b
}
