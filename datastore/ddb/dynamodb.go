/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/registry"
	"github.com/suparena/entitycache/storagemodels"
)

var (
	_ datastore.Source = (*Source)(nil)
	_ datastore.Writer = (*Source)(nil)
)

// API is the part of the DynamoDB client used by Source.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
}

// ClientConfig holds what is needed to reach a DynamoDB endpoint.
// Empty credentials fall back to the default AWS credential chain.
type ClientConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
}

// ClientConfigFromEnv reads AWS_ACCESS_KEY, AWS_SECRET_KEY, AWS_REGION and AWS_DDB_ENDPOINT.
func ClientConfigFromEnv() ClientConfig {
	return ClientConfig{
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
		Region:    os.Getenv("AWS_REGION"),
		Endpoint:  os.Getenv("AWS_DDB_ENDPOINT"),
	}
}

// NewClient initializes a DynamoDB client.
func NewClient(ctx context.Context, cc ClientConfig) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cc.Region)}
	if cc.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cc.AccessKey, cc.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if cc.Endpoint != "" {
			o.BaseEndpoint = aws.String(cc.Endpoint)
		}
	}), nil
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger used for retries
func WithLogger(logger *slog.Logger) Option {
	return func(d *Source) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSourceOptions applies page size and retry settings
func WithSourceOptions(opts ...storagemodels.SourceOption) Option {
	return func(d *Source) {
		for _, opt := range opts {
			if opt != nil {
				opt(&d.options)
			}
		}
	}
}

// WithGSIConfig declares a secondary index usable through ListParams.IndexName
func WithGSIConfig(cfg GSIConfig) Option {
	return func(d *Source) {
		d.gsi[cfg.IndexName] = cfg
	}
}

// Source serves the entities of one store from a DynamoDB table.
type Source struct {
	client    API
	tableName string
	store     string
	options   storagemodels.SourceOptions
	gsi       map[string]GSIConfig
	logger    *slog.Logger

	mu sync.Mutex
	// cursors holds, per listing, the ExclusiveStartKey of each page seen so far
	cursors map[string][]map[string]types.AttributeValue
}

// NewSource creates a Source for the store whose index map is registered
// under the given name.
func NewSource(client API, tableName, store string, opts ...Option) *Source {
	d := &Source{
		client:    client,
		tableName: tableName,
		store:     store,
		options:   storagemodels.DefaultSourceOptions(),
		gsi:       maps.Clone(DefaultGSIConfigs),
		logger:    slog.Default(),
		cursors:   make(map[string][]map[string]types.AttributeValue),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "ddb", "table", tableName, "store", store)
	return d
}

// GetOne retrieves a single item by key.
// It returns nil, nil if no item is found.
func (d *Source) GetOne(ctx context.Context, key string) (storagemodels.Entity, error) {
	indexMap, err := registry.MustGetIndexMap(d.store)
	if err != nil {
		return nil, err
	}

	keyMap, err := buildKey(registry.ExpandIndexMap(indexMap, key))
	if err != nil {
		return nil, fmt.Errorf("failed to build key: %w", err)
	}

	out, err := withRetry(ctx, d, "GetItem", func() (*sdk.GetItemOutput, error) {
		return d.client.GetItem(ctx, &sdk.GetItemInput{
			TableName: &d.tableName,
			Key:       keyMap,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	return d.decode(out.Item, indexMap)
}

// Put stores the entity, filling key attributes from its index map.
func (d *Source) Put(ctx context.Context, e storagemodels.Entity) error {
	indexMap, err := registry.MustGetIndexMap(d.store)
	if err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(map[string]any(e))
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	for k, v := range registry.ExpandEntity(indexMap, e) {
		if v != "" {
			av[k] = &types.AttributeValueMemberS{Value: v}
		}
	}
	if _, ok := av[tablePartitionKey]; !ok {
		return errors.NewValidationError(tablePartitionKey, "index map did not produce a partition key")
	}

	_, err = withRetry(ctx, d, "PutItem", func() (*sdk.PutItemOutput, error) {
		return d.client.PutItem(ctx, &sdk.PutItemInput{
			TableName: &d.tableName,
			Item:      av,
		})
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// decode converts an item to an entity without its key attributes.
func (d *Source) decode(item map[string]types.AttributeValue, indexMap map[string]string) (storagemodels.Entity, error) {
	var e storagemodels.Entity
	if err := attributevalue.UnmarshalMap(item, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	for attr := range indexMap {
		delete(e, attr)
	}
	return e, nil
}

// buildKey builds a DynamoDB key from the expanded index map.
// PK is required, SK is used when the table has one.
func buildKey(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk := expanded[tablePartitionKey]
	if pk == "" {
		return nil, fmt.Errorf("expanded index map missing valid %s", tablePartitionKey)
	}

	key := map[string]types.AttributeValue{
		tablePartitionKey: &types.AttributeValueMemberS{Value: pk},
	}
	if sk := expanded[tableSortKey]; sk != "" {
		key[tableSortKey] = &types.AttributeValueMemberS{Value: sk}
	}
	return key, nil
}
