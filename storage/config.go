package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Kind selects a store backend.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindJSON     Kind = "json"
	KindYAML     Kind = "yaml"
	KindDynamoDB Kind = "dynamodb"
)

const (
	defaultTable     = "dotstore"
	defaultPartition = "default"
)

// Config holds store initialization parameters.
type Config struct {
	Kind              Kind   `json:"kind,omitempty"`
	Path              string `json:"path,omitempty"`                 // file stores
	CreateIfNotExists bool   `json:"create_if_not_exists,omitempty"` // file stores
	Table             string `json:"table,omitempty"`                // dynamodb
	Partition         string `json:"partition,omitempty"`            // dynamodb
	Region            string `json:"region,omitempty"`               // dynamodb; empty uses the AWS default chain
	Endpoint          string `json:"endpoint,omitempty"`             // dynamodb; local or proxy endpoint
}

// DefaultConfig returns a volatile in-memory store configuration.
func DefaultConfig() Config {
	return Config{
		Kind:      KindMemory,
		Table:     defaultTable,
		Partition: defaultPartition,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Kind != "" {
		c.Kind = source.Kind
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.CreateIfNotExists {
		c.CreateIfNotExists = true
	}
	if source.Table != "" {
		c.Table = source.Table
	}
	if source.Partition != "" {
		c.Partition = source.Partition
	}
	if source.Region != "" {
		c.Region = source.Region
	}
	if source.Endpoint != "" {
		c.Endpoint = source.Endpoint
	}
}

// KindFromPath picks the file store kind for a filename: yaml for .yaml and
// .yml, json otherwise.
func KindFromPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return KindYAML
	default:
		return KindJSON
	}
}

// NewStore creates an unopened Store from configuration.
func NewStore(ctx context.Context, cfg *Config, opts ...Option) (Store, error) {
	switch cfg.Kind {
	case KindMemory, "":
		return NewMemoryStore(opts...), nil
	case KindJSON, KindYAML:
		if cfg.Path == "" {
			return nil, fmt.Errorf("%s store requires a path", cfg.Kind)
		}
		opts = append([]Option{WithCreateIfNotExists(cfg.CreateIfNotExists)}, opts...)
		if cfg.Kind == KindYAML {
			return NewYAMLFileStore(cfg.Path, opts...), nil
		}
		return NewJSONFileStore(cfg.Path, opts...), nil
	case KindDynamoDB:
		client, err := newDynamoDBClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewDynamoDBStore(client, cfg.Table, cfg.Partition, opts...), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, cfg.Kind)
}

func newDynamoDBClient(ctx context.Context, cfg *Config) (*dynamodb.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
