package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
)

// Config holds connection settings for a Weaviate instance.
type Config struct {
	Host   string
	Port   string
	Scheme string
}

// Client implements the vectorstore.Store interface against Weaviate.
type Client struct {
	client *weaviate.Client
}

// NewClient connects to Weaviate and verifies readiness.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "http"
	}

	// weaviate-go-client expects "host:port" format
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   fmt.Sprintf("%s:%s", host, port),
		Scheme: scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize weaviate client: %w", err)
	}

	ready, err := client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate not ready at %s://%s:%s: %w", scheme, host, port, err)
	}
	if !ready {
		return nil, fmt.Errorf("weaviate not ready at %s://%s:%s", scheme, host, port)
	}

	return &Client{client: client}, nil
}
