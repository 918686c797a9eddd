package build

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// Node is a handle on a docker daemon.
type Node interface {
	Host() string
	Client() *client.Client
}

func NewNodeFromEnv(ctx context.Context) (Node, error) {
	client, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}

	ping, err := client.Ping(ctx)
	if err != nil {
		return nil, err
	}

	return &node{
		client: client,
		ping:   ping,
	}, nil
}

type node struct {
	client *client.Client
	ping   types.Ping
}

func (n *node) Host() string {
	return n.client.DaemonHost()
}

func (n *node) Client() *client.Client {
	return n.client
}
