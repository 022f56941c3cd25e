package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/teenyweeny/urlshortener/internal/models"
)

const (
	// DefaultRedisPrefix namespaces every key the repository touches.
	DefaultRedisPrefix = "teenyweeny"

	linkSuffix     = ":link"    // Hash id -> link JSON
	codeToIDSuffix = ":code2id" // Hash short code -> id
	clicksSuffix   = ":clicks"  // Hash id -> click counter

	maxWatchRetries = 5
)

// insertScript claims the short code and writes the link in one step.
// Returns -1 on id conflict, 0 if the code is taken, 1 on insert.
var insertScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 then
	return -1
end
if redis.call('HSETNX', KEYS[2], ARGV[2], ARGV[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
redis.call('HSET', KEYS[3], ARGV[1], ARGV[4])
return 1
`)

// incrementScript bumps the counter only for links that still exist. Returns -1 otherwise.
var incrementScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[2], ARGV[1], ARGV[2])
`)

// RedisLinkRepository implements LinkRepository on top of Redis hashes.
// Click counters live in their own hash so increments never rewrite the link document.
type RedisLinkRepository struct {
	rdb       *redis.Client
	linkKey   string
	codeKey   string
	clicksKey string
}

// NewRedisLinkRepository creates a repository storing its keys under prefix.
func NewRedisLinkRepository(rdb *redis.Client, prefix string) *RedisLinkRepository {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisLinkRepository{
		rdb:       rdb,
		linkKey:   prefix + linkSuffix,
		codeKey:   prefix + codeToIDSuffix,
		clicksKey: prefix + clicksSuffix,
	}
}

func (r *RedisLinkRepository) insert(ctx context.Context, link *models.Link) (int64, error) {
	assignID(link)

	doc := *link
	doc.Clicks = 0
	data, err := json.Marshal(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to encode link: %w", err)
	}

	res, err := insertScript.Run(ctx, r.rdb,
		[]string{r.linkKey, r.codeKey, r.clicksKey},
		link.ID, link.ShortCode, data, link.Clicks,
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to create link: %w", err)
	}
	return res, nil
}

// Put implements LinkRepository.Put
func (r *RedisLinkRepository) Put(ctx context.Context, link *models.Link) (string, error) {
	res, err := r.insert(ctx, link)
	if err != nil {
		return "", err
	}
	if res != 1 {
		return "", ErrConflict
	}
	return link.ID, nil
}

// PutIfAbsent implements LinkRepository.PutIfAbsent
func (r *RedisLinkRepository) PutIfAbsent(ctx context.Context, link *models.Link) (bool, error) {
	res, err := r.insert(ctx, link)
	if err != nil {
		return false, err
	}
	if res < 0 {
		return false, ErrConflict
	}
	return res == 1, nil
}

// readDoc loads the stored document without its click counter.
func (r *RedisLinkRepository) readDoc(ctx context.Context, c redis.Cmdable, id string) (*models.Link, error) {
	raw, err := c.HGet(ctx, r.linkKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var link models.Link
	if err := json.Unmarshal([]byte(raw), &link); err != nil {
		return nil, fmt.Errorf("failed to decode link %s: %w", id, err)
	}
	return &link, nil
}

// watch runs fn in an optimistic transaction on the link hash, retrying on conflicts.
func (r *RedisLinkRepository) watch(ctx context.Context, fn func(tx *redis.Tx) error) error {
	var err error
	for i := 0; i < maxWatchRetries; i++ {
		err = r.rdb.Watch(ctx, fn, r.linkKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// Update implements LinkRepository.Update
func (r *RedisLinkRepository) Update(ctx context.Context, id string, patch LinkPatch) (bool, error) {
	found := false
	err := r.watch(ctx, func(tx *redis.Tx) error {
		link, err := r.readDoc(ctx, tx, id)
		if err != nil || link == nil {
			found = false
			return err
		}
		found = true
		if patch.IsEmpty() {
			return nil
		}

		patch.Apply(link)
		data, err := json.Marshal(link)
		if err != nil {
			return fmt.Errorf("failed to encode link: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.linkKey, id, data)
			return nil
		})
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to update link %s: %w", id, err)
	}
	return found, nil
}

// IncrementClicks implements LinkRepository.IncrementClicks
func (r *RedisLinkRepository) IncrementClicks(ctx context.Context, id string, delta int64) (int64, bool, error) {
	if err := checkDelta(delta); err != nil {
		return 0, false, err
	}

	clicks, err := incrementScript.Run(ctx, r.rdb, []string{r.linkKey, r.clicksKey}, id, delta).Int64()
	if err != nil {
		return 0, false, fmt.Errorf("failed to increment clicks for link %s: %w", id, err)
	}
	if clicks < 0 {
		return 0, false, nil
	}
	return clicks, true, nil
}

// Remove implements LinkRepository.Remove
func (r *RedisLinkRepository) Remove(ctx context.Context, id string) (bool, error) {
	existed := false
	err := r.watch(ctx, func(tx *redis.Tx) error {
		link, err := r.readDoc(ctx, tx, id)
		if err != nil || link == nil {
			existed = false
			return err
		}
		owner, err := tx.HGet(ctx, r.codeKey, link.ShortCode).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		existed = true
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, r.linkKey, id)
			pipe.HDel(ctx, r.clicksKey, id)
			if owner == id {
				pipe.HDel(ctx, r.codeKey, link.ShortCode)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete link %s: %w", id, err)
	}
	return existed, nil
}

// GetAll implements LinkRepository.GetAll
func (r *RedisLinkRepository) GetAll(ctx context.Context) ([]models.Link, error) {
	pipe := r.rdb.Pipeline()
	docsCmd := pipe.HGetAll(ctx, r.linkKey)
	clicksCmd := pipe.HGetAll(ctx, r.clicksKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to retrieve all links: %w", err)
	}

	counters := clicksCmd.Val()
	links := make([]models.Link, 0, len(docsCmd.Val()))
	for id, raw := range docsCmd.Val() {
		var link models.Link
		if err := json.Unmarshal([]byte(raw), &link); err != nil {
			return nil, fmt.Errorf("failed to decode link %s: %w", id, err)
		}
		if raw, ok := counters[id]; ok {
			clicks, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to decode clicks for link %s: %w", id, err)
			}
			link.Clicks = clicks
		}
		links = append(links, link)
	}

	sort.Slice(links, func(i, j int) bool {
		if links[i].CreatedAt != links[j].CreatedAt {
			return links[i].CreatedAt < links[j].CreatedAt
		}
		return links[i].ID < links[j].ID
	})
	return links, nil
}

// getByID loads one link together with its counter.
func (r *RedisLinkRepository) getByID(ctx context.Context, id string) (*models.Link, error) {
	link, err := r.readDoc(ctx, r.rdb, id)
	if err != nil || link == nil {
		return nil, err
	}
	clicks, err := r.rdb.HGet(ctx, r.clicksKey, id).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	link.Clicks = clicks
	return link, nil
}

// FindBy implements LinkRepository.FindBy
func (r *RedisLinkRepository) FindBy(ctx context.Context, field Field, value any) ([]models.Link, error) {
	var id string
	switch field {
	case FieldID:
		id, _ = value.(string)
	case FieldShortCode:
		code, _ := value.(string)
		got, err := r.rdb.HGet(ctx, r.codeKey, code).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find link by short code: %w", err)
		}
		id = got
	default:
		all, err := r.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		return filterLinks(all, field, value)
	}

	link, err := r.getByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find link %s: %w", id, err)
	}
	if link == nil {
		return nil, nil
	}
	return []models.Link{*link}, nil
}
