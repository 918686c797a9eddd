package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"bakery/docs"
	"bakery/lint"
	"bakery/log"
	enet "bakery/net"
	"bakery/types"
	"bakery/verify"
)

const (
	recipesPath    = "/recipes"
	recipeBasePath = "/recipe"
	renderPath     = "/render"
	verifyPath     = "/verify"
)

type Interface interface {
	Recipes(context.Context) ([]types.RecipeInfo, error)
	Recipe(context.Context, string) (*types.RecipeInfo, error)
	Dockerfile(context.Context, string, enet.RenderQuery) ([]byte, error)
	Docs(context.Context, string) ([]byte, error)
	Lint(context.Context, string) ([]lint.Finding, error)
	Render(context.Context, enet.RenderRequest) ([]docs.File, error)
	Verify(context.Context, enet.VerifyRequest) ([]verify.Report, error)
}

type Opt func(*client) error

func WithHost(host string) Opt {
	return func(c *client) error {
		c.host = host
		return nil
	}
}

func WithLog(l logrus.FieldLogger) Opt {
	return func(c *client) error {
		c.l = l
		return nil
	}
}

type client struct {
	host  string
	chttp *http.Client
	l     logrus.FieldLogger
}

func New(opts ...Opt) (Interface, error) {
	c := &client{
		host:  enet.DefaultConnectAddress,
		l:     log.Default(),
		chttp: &http.Client{},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *client) Recipes(ctx context.Context) ([]types.RecipeInfo, error) {
	resp, err := c.doRequest(ctx, "GET", recipesPath, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var infos []types.RecipeInfo
	if err := json.Unmarshal(buf, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

func (c *client) Recipe(ctx context.Context, name string) (*types.RecipeInfo, error) {
	resp, err := c.doRequest(ctx, "GET", path.Join(recipeBasePath, name), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var info types.RecipeInfo
	if err := json.Unmarshal(buf, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *client) Dockerfile(ctx context.Context, name string, q enet.RenderQuery) ([]byte, error) {
	p := path.Join(recipeBasePath, name, "dockerfile")
	if vals := q.Values(); len(vals) > 0 {
		p += "?" + vals.Encode()
	}

	resp, err := c.doRequest(ctx, "GET", p, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return ioutil.ReadAll(resp.Body)
}

func (c *client) Docs(ctx context.Context, name string) ([]byte, error) {
	resp, err := c.doRequest(ctx, "GET", path.Join(recipeBasePath, name, "docs"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return ioutil.ReadAll(resp.Body)
}

func (c *client) Lint(ctx context.Context, name string) ([]lint.Finding, error) {
	resp, err := c.doRequest(ctx, "GET", path.Join(recipeBasePath, name, "lint"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var findings []lint.Finding
	if err := json.Unmarshal(buf, &findings); err != nil {
		return nil, err
	}
	return findings, nil
}

func (c *client) Render(ctx context.Context, req enet.RenderRequest) ([]docs.File, error) {
	buf, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, "POST", renderPath, bytes.NewBuffer(buf))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err = ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var files []docs.File
	if err := json.Unmarshal(buf, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *client) Verify(ctx context.Context, req enet.VerifyRequest) ([]verify.Report, error) {
	buf, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, "POST", verifyPath, bytes.NewBuffer(buf))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err = ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var reports []verify.Report
	if err := json.Unmarshal(buf, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// doRequest runs one RPC. Non-200 responses convert to errors carrying the
// server's message; the response is only returned on success.
func (c *client) doRequest(ctx context.Context, method string, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, c.host+path, body)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	req.Header.Add("Content-Type", enet.RPCContentType)

	c.l.WithField("method", method).WithField("path", path).Debug("rpc request")

	resp, err := c.chttp.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		buf, _ := ioutil.ReadAll(resp.Body)
		return nil, fmt.Errorf("net: %v: %v", resp.Status, strings.TrimSpace(string(buf)))
	}
	return resp, nil
}
