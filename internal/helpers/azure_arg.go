package helpers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"
	"github.com/praetorian-inc/pulsar/internal/logs"
)

// ARGQueryOptions represents options for executing an ARG query
type ARGQueryOptions struct {
	// Subscriptions to query. If nil, queries all accessible subscriptions
	Subscriptions []string
	// Maximum number of records to return. If 0, uses default (100)
	Top int32
	// Skip first N records
	Skip int32
	// Format for the results (defaults to ObjectArray)
	ResultFormat armresourcegraph.ResultFormat
}

// ARGClient wraps the Resource Graph client for easier use
type ARGClient struct {
	client *armresourcegraph.Client
	logger *slog.Logger
}

// NewARGClient creates a Resource Graph client from the given
// credential.
func NewARGClient(cred azcore.TokenCredential) (*ARGClient, error) {
	client, err := armresourcegraph.NewClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ARG client: %v", err)
	}

	return &ARGClient{
		client: client,
		logger: logs.ComponentLogger("ARGClient"),
	}, nil
}

// ExecuteQuery runs an ARG query with the given options
func (c *ARGClient) ExecuteQuery(ctx context.Context, query string, opts *ARGQueryOptions) (*armresourcegraph.ClientResourcesResponse, error) {
	if opts == nil {
		opts = &ARGQueryOptions{}
	}
	if opts.ResultFormat == "" {
		opts.ResultFormat = armresourcegraph.ResultFormatObjectArray
	}

	options := &armresourcegraph.QueryRequestOptions{
		ResultFormat: to.Ptr(opts.ResultFormat),
	}
	if opts.Top > 0 {
		options.Top = to.Ptr(opts.Top)
	}
	if opts.Skip > 0 {
		options.Skip = to.Ptr(opts.Skip)
	}

	var subPtrs []*string
	for _, sub := range opts.Subscriptions {
		subPtrs = append(subPtrs, to.Ptr(sub))
	}

	request := armresourcegraph.QueryRequest{
		Query:         &query,
		Options:       options,
		Subscriptions: subPtrs,
	}

	response, err := c.client.Resources(ctx, request, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ARG query: %v", err)
	}

	return &response, nil
}

// ExecutePaginatedQuery executes an ARG query and handles pagination automatically
func (c *ARGClient) ExecutePaginatedQuery(ctx context.Context, query string, opts *ARGQueryOptions, callback func(response *armresourcegraph.ClientResourcesResponse) error) error {
	if opts == nil {
		opts = &ARGQueryOptions{
			ResultFormat: armresourcegraph.ResultFormatObjectArray,
		}
	}

	var skip int32 = 0
	for {
		currentOpts := *opts
		currentOpts.Skip = skip

		response, err := c.ExecuteQuery(ctx, query, &currentOpts)
		if err != nil {
			return err
		}

		if err := callback(response); err != nil {
			return err
		}

		if response.TotalRecords == nil || response.Count == nil ||
			int64(skip) >= *response.TotalRecords || *response.Count == 0 {
			break
		}

		skip += int32(*response.Count)
	}

	return nil
}

// CollectRows runs a paginated query and flattens every returned row
// into loosely-typed maps for the caller to pick fields from.
func (c *ARGClient) CollectRows(ctx context.Context, query string, subscription string) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}

	opts := &ARGQueryOptions{Subscriptions: []string{subscription}}
	err := c.ExecutePaginatedQuery(ctx, query, opts, func(response *armresourcegraph.ClientResourcesResponse) error {
		if response == nil || response.Data == nil {
			return nil
		}

		data, ok := response.Data.([]interface{})
		if !ok {
			return fmt.Errorf("unexpected response data type")
		}

		c.logger.Debug("processing query page", slog.Int("count", len(data)))
		for _, row := range data {
			if item, ok := row.(map[string]interface{}); ok {
				rows = append(rows, item)
			}
		}
		return nil
	})
	return rows, err
}
