// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"context"

	"github.com/datarest/datarest/client"
)

type clientContextKey struct{}

// SetClientForContext stores the API client on the context.
func SetClientForContext(ctx context.Context, c *client.Client) context.Context {
	return context.WithValue(ctx, clientContextKey{}, c)
}

// GetClientFromContext returns the API client stored on the context.
func GetClientFromContext(ctx context.Context) (*client.Client, bool) {
	c, ok := ctx.Value(clientContextKey{}).(*client.Client)

	return c, ok
}
