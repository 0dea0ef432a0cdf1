package backend

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sort"
)

const cachePrefix = "backend:cache:"

// Lookups that change only through admin actions; free slots are never cached.
var cacheableActions = map[string]bool{
	"get_settings":   true,
	"get_exceptions": true,
	"get_reviews":    true,
}

// Mutations that make cached lookups stale.
var invalidatingActions = map[string]bool{
	"add_exception":    true,
	"remove_exception": true,
	"update_settings":  true,
	"save_review":      true,
}

func cacheKey(action string, payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha1.New()
	for _, k := range keys {
		v, _ := json.Marshal(payload[k])
		h.Write([]byte(k))
		h.Write(v)
	}
	return cachePrefix + action + ":" + hex.EncodeToString(h.Sum(nil))
}

// do runs an action through the read cache when it applies.
func (c *Client) do(ctx context.Context, action string, payload map[string]any) Result {
	if c.cache == nil || c.cacheTTL <= 0 {
		return c.Call(ctx, action, payload)
	}

	if cacheableActions[action] {
		key := cacheKey(action, payload)
		if raw, err := c.cache.Get(ctx, key).Bytes(); err == nil {
			return Result{Status: StatusSuccess, Raw: raw}
		}
		res := c.Call(ctx, action, payload)
		if res.OK() {
			if err := c.cache.Set(ctx, key, []byte(res.Raw), c.cacheTTL).Err(); err != nil {
				c.logger.Warn().Err(err).Str("action", action).Msg("backend cache write failed")
			}
		}
		return res
	}

	res := c.Call(ctx, action, payload)
	if res.OK() && invalidatingActions[action] {
		c.invalidate(ctx)
	}
	return res
}

func (c *Client) invalidate(ctx context.Context) {
	iter := c.cache.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Msg("backend cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.cache.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("backend cache invalidation failed")
	}
}
