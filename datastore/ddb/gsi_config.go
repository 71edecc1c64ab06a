/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

// GSIConfig maps a logical index name to the attributes backing it
type GSIConfig struct {
	// IndexName is the actual GSI name in DynamoDB (e.g., "GSI1")
	IndexName string `yaml:"indexName"`
	// PartitionKeyName is the partition key attribute of the GSI (e.g., "PK1")
	PartitionKeyName string `yaml:"partitionKey"`
	// SortKeyName is the sort key attribute of the GSI (e.g., "SK1")
	SortKeyName string `yaml:"sortKey"`
}

// DefaultGSIConfigs holds the index layout every Source starts with
var DefaultGSIConfigs = map[string]GSIConfig{
	"GSI1": {
		IndexName:        "GSI1",
		PartitionKeyName: "PK1",
		SortKeyName:      "SK1",
	},
}

// tablePartitionKey and tableSortKey name the primary key attributes
const (
	tablePartitionKey = "PK"
	tableSortKey      = "SK"
)
