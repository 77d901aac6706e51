// Package catalog searches the Landsat collection for scenes over a region and
// downloads them through the process API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/properties"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrUnauthorized = errors.New("unauthorized access, check your client ID and secret")

// Client talks to the catalog and process endpoints. Each HTTP client is an
// authenticated identity; they are tried in order until one succeeds.
type Client struct {
	HTTP       []*http.Client
	CatalogURL string
	ProcessURL string
	Collection string
	Retries    int
	RetryDelay time.Duration
	Log        *logrus.Entry
}

// NewClient builds a client from the configured OAuth2 credentials.
func NewClient(ctx context.Context) (*Client, error) {
	creds, err := properties.Credentials()
	if err != nil {
		return nil, err
	}
	clients := make([]*http.Client, 0, len(creds))
	for _, c := range creds {
		config := &clientcredentials.Config{
			ClientID:     c[0],
			ClientSecret: c[1],
			TokenURL:     properties.TokenURL(),
		}
		clients = append(clients, config.Client(ctx))
	}
	return &Client{
		HTTP:       clients,
		CatalogURL: properties.CatalogURL(),
		ProcessURL: properties.ProcessURL(),
		Collection: properties.Collection(),
		Retries:    properties.FetchRetries(),
		RetryDelay: 5 * time.Second,
		Log:        logrus.WithField("component", "catalog"),
	}, nil
}

func (c *Client) logger() *logrus.Entry {
	if c.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return c.Log
}

// post sends body to url with every identity in turn, retrying each one.
// The response body is returned only for a 200 answer.
func (c *Client) post(ctx context.Context, url string, body []byte, accept string) ([]byte, error) {
	if len(c.HTTP) == 0 {
		return nil, fmt.Errorf("catalog: no HTTP client configured")
	}
	var lastErr error
	for i, httpClient := range c.HTTP {
		content, err := c.postWithRetry(ctx, httpClient, url, body, accept)
		if err == nil {
			return content, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger().WithError(err).WithField("identity", i).Warn("request failed, trying next identity")
		lastErr = err
	}
	return nil, lastErr
}
