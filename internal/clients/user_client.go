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

var ErrUserNotFound = errors.New("user not found")

// User is the slice of the user-service record the chat core needs.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// UserResolver resolves external user ids.
type UserResolver interface {
	ResolveUser(ctx context.Context, userID string) (User, error)
	BulkUsers(ctx context.Context, userIDs []string) (map[string]User, error)
}

// UserClient calls the user service over HTTP with a redis read-through
// cache in front.
type UserClient struct {
	baseURL  string
	http     *http.Client
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewUserClient constructs the client. cache may be nil to disable caching.
func NewUserClient(baseURL string, timeout time.Duration, cache *redis.Client, cacheTTL time.Duration) *UserClient {
	return &UserClient{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// ResolveUser fetches a single user, preferring the cache.
func (c *UserClient) ResolveUser(ctx context.Context, userID string) (User, error) {
	if user, ok := c.cached(ctx, userID); ok {
		return user, nil
	}

	var user User
	if err := c.getJSON(ctx, "/internal/users/"+url.PathEscape(userID), &user, ErrUserNotFound); err != nil {
		return User{}, err
	}
	c.store(ctx, user)
	return user, nil
}

// BulkUsers resolves many users in one pass, keyed by id. Unknown ids are
// simply absent from the result.
func (c *UserClient) BulkUsers(ctx context.Context, userIDs []string) (map[string]User, error) {
	result := make(map[string]User, len(userIDs))
	missing := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if user, ok := c.cached(ctx, id); ok {
			result[id] = user
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	query := url.Values{"ids": missing}
	var users []User
	if err := c.getJSON(ctx, "/internal/users?"+query.Encode(), &users, nil); err != nil {
		return nil, err
	}
	for _, user := range users {
		result[user.ID] = user
		c.store(ctx, user)
	}
	return result, nil
}

func (c *UserClient) getJSON(ctx context.Context, path string, out any, notFound error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("user service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		return notFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user service: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *UserClient) cached(ctx context.Context, userID string) (User, bool) {
	if c.cache == nil {
		return User{}, false
	}
	raw, err := c.cache.Get(ctx, userCacheKey(userID)).Bytes()
	if err != nil {
		return User{}, false
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return User{}, false
	}
	return user, true
}

func (c *UserClient) store(ctx context.Context, user User) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, userCacheKey(user.ID), raw, c.cacheTTL).Err(); err != nil {
		logrus.WithError(err).Debug("user cache write failed")
	}
}

func userCacheKey(userID string) string {
	return "trade_chat:user:" + userID
}
