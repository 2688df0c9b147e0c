package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrItemNotFound = errors.New("item not found")

// Item is the slice of the catalog record the chat core needs.
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	SellerID string `json:"seller_id"`
}

// ItemResolver resolves external item ids.
type ItemResolver interface {
	ResolveItem(ctx context.Context, itemID string) (Item, error)
}

// ItemClient calls the catalog service over HTTP with a redis read-through
// cache in front.
type ItemClient struct {
	baseURL  string
	http     *http.Client
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewItemClient constructs the client. cache may be nil to disable caching.
func NewItemClient(baseURL string, timeout time.Duration, cache *redis.Client, cacheTTL time.Duration) *ItemClient {
	return &ItemClient{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// ResolveItem fetches a single item, preferring the cache.
func (c *ItemClient) ResolveItem(ctx context.Context, itemID string) (Item, error) {
	if c.cache != nil {
		if raw, err := c.cache.Get(ctx, itemCacheKey(itemID)).Bytes(); err == nil {
			var item Item
			if err := json.Unmarshal(raw, &item); err == nil {
				return item, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/internal/items/"+url.PathEscape(itemID), nil)
	if err != nil {
		return Item{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Item{}, fmt.Errorf("catalog service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Item{}, ErrItemNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Item{}, fmt.Errorf("catalog service: unexpected status %d", resp.StatusCode)
	}

	var item Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return Item{}, err
	}

	if c.cache != nil {
		if raw, err := json.Marshal(item); err == nil {
			if err := c.cache.Set(ctx, itemCacheKey(item.ID), raw, c.cacheTTL).Err(); err != nil {
				logrus.WithError(err).Debug("item cache write failed")
			}
		}
	}
	return item, nil
}

func itemCacheKey(itemID string) string {
	return "trade_chat:item:" + itemID
}
