package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
)

// ErrMissingIndexPrice is returned when a 2xx response has no result.index_price.
var ErrMissingIndexPrice = errors.New("response missing result.index_price")

// GetIndexPrice fetches the current index price for indexName (e.g., "btc_usd").
func (c *Client) GetIndexPrice(ctx context.Context, indexName string) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("index_name", indexName)

	var resp IndexPriceResponse
	if err := c.get(ctx, "/get_index_price", query, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("get index price %s: %w", indexName, err)
	}

	if resp.Error != nil {
		return decimal.Zero, fmt.Errorf("get index price %s: %w", indexName, resp.Error)
	}
	if resp.Result == nil || resp.Result.IndexPrice == nil {
		return decimal.Zero, fmt.Errorf("get index price %s: %w", indexName, ErrMissingIndexPrice)
	}

	return *resp.Result.IndexPrice, nil
}
