// Package farm360 provides a GraphQL client for the 360 farm-data API.
// It implements a deep module interface - simple methods hiding the GraphQL
// queries behind the workspace/season/farm/field cascade.
package farm360

import (
	"context"

	"github.com/machinebox/graphql"
)

// Client is a 360 GraphQL API client.
type Client struct {
	gql    *graphql.Client
	apiKey string
}

// New creates a 360 client for the given GraphQL endpoint and API key.
func New(endpoint, apiKey string) *Client {
	return &Client{
		gql:    graphql.NewClient(endpoint),
		apiKey: apiKey,
	}
}

// makeRequest executes a GraphQL request with the API key header set.
func (c *Client) makeRequest(ctx context.Context, req *graphql.Request, resp interface{}) error {
	req.Header.Set("X-Api-Key", c.apiKey)
	return c.gql.Run(ctx, req, resp)
}
