/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/registry"
	"github.com/suparena/entitycache/storagemodels"
)

// QueryPage returns one page of the items whose partition key equals
// params.Partition. Page 0 restarts the cursor walk of the listing; later
// pages reuse the cursors recorded so far and walk forward when needed.
func (d *Source) QueryPage(ctx context.Context, params storagemodels.ListParams, page int) (*storagemodels.Page[storagemodels.Entity], error) {
	if params.Partition == "" {
		return nil, errors.NewValidationError("partition", "is required")
	}
	if page < 0 {
		return nil, errors.NewValidationError("page", "must not be negative")
	}

	base, err := d.queryInput(params)
	if err != nil {
		return nil, err
	}

	total, err := d.count(ctx, base)
	if err != nil {
		return nil, err
	}

	result := &storagemodels.Page[storagemodels.Entity]{
		Content:    []storagemodels.Entity{},
		Page:       page,
		TotalPages: datastore.TotalPages(total, *base.Limit),
		TotalSize:  total,
	}

	cursor := cursorKey(params, *base.Limit)
	if page == 0 {
		d.resetCursor(cursor)
	}
	start, ok, err := d.startKey(ctx, base, cursor, page)
	if err != nil {
		return nil, err
	}
	if !ok {
		return result, nil
	}

	out, err := d.query(ctx, base, start)
	if err != nil {
		return nil, err
	}
	if out.LastEvaluatedKey != nil {
		d.remember(cursor, page, out.LastEvaluatedKey)
	}

	indexMap, _ := registry.GetIndexMap(d.store)
	for _, item := range out.Items {
		e, err := d.decode(item, indexMap)
		if err != nil {
			return nil, err
		}
		result.Content = append(result.Content, e)
	}
	return result, nil
}

func (d *Source) queryInput(params storagemodels.ListParams) (*sdk.QueryInput, error) {
	attr := tablePartitionKey
	var indexName *string
	if params.IndexName != "" {
		cfg, ok := d.gsi[params.IndexName]
		if !ok {
			return nil, errors.NewValidationError("indexName", fmt.Sprintf("unknown index %q", params.IndexName))
		}
		attr = cfg.PartitionKeyName
		indexName = aws.String(cfg.IndexName)
	}

	size := params.PageSize
	if size <= 0 {
		size = d.options.PageSize
	}

	return &sdk.QueryInput{
		TableName:              aws.String(d.tableName),
		IndexName:              indexName,
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: params.Partition},
		},
		Limit:            aws.Int32(size),
		ScanIndexForward: params.Ascending,
	}, nil
}

// count returns the number of items of the listing.
func (d *Source) count(ctx context.Context, base *sdk.QueryInput) (int, error) {
	input := *base
	input.Select = types.SelectCount
	input.Limit = nil

	total := 0
	for {
		out, err := withRetry(ctx, d, "Query", func() (*sdk.QueryOutput, error) {
			return d.client.Query(ctx, &input)
		})
		if err != nil {
			return 0, fmt.Errorf("count query error: %w", err)
		}
		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			return total, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (d *Source) query(ctx context.Context, base *sdk.QueryInput, start map[string]types.AttributeValue) (*sdk.QueryOutput, error) {
	input := *base
	input.ExclusiveStartKey = start
	out, err := withRetry(ctx, d, "Query", func() (*sdk.QueryOutput, error) {
		return d.client.Query(ctx, &input)
	})
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return out, nil
}

// startKey returns the ExclusiveStartKey of page, walking the pages between
// the last known cursor and page. ok is false when page is past the end.
func (d *Source) startKey(ctx context.Context, base *sdk.QueryInput, cursor string, page int) (map[string]types.AttributeValue, bool, error) {
	for {
		d.mu.Lock()
		starts := d.cursors[cursor]
		if starts == nil {
			starts = []map[string]types.AttributeValue{nil}
			d.cursors[cursor] = starts
		}
		if page < len(starts) {
			d.mu.Unlock()
			return starts[page], true, nil
		}
		known := len(starts) - 1
		from := starts[known]
		d.mu.Unlock()

		out, err := d.query(ctx, base, from)
		if err != nil {
			return nil, false, err
		}
		if out.LastEvaluatedKey == nil {
			return nil, false, nil
		}
		d.remember(cursor, known, out.LastEvaluatedKey)
	}
}

// remember records next as the start of the page following page.
func (d *Source) remember(cursor string, page int, next map[string]types.AttributeValue) {
	d.mu.Lock()
	defer d.mu.Unlock()
	starts := d.cursors[cursor]
	if len(starts) == page+1 {
		d.cursors[cursor] = append(starts, next)
	}
}

func (d *Source) resetCursor(cursor string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.cursors, cursor)
}

func cursorKey(params storagemodels.ListParams, size int32) string {
	order := "default"
	if params.Ascending != nil {
		order = fmt.Sprintf("%v", *params.Ascending)
	}
	return fmt.Sprintf("%s|%s|%d|%s", params.IndexName, params.Partition, size, order)
}
