package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"inkpad/internal/common"
	"inkpad/internal/document"
)

// Redis implements Manager on top of a Redis instance. Documents and users
// are stored as JSON values with membership sets as secondary indexes;
// refresh tokens use key TTLs so expiry needs no sweeper.
type Redis struct {
	client *redis.Client

	users  *redisUsers
	tokens *redisRefreshTokens
	docs   *redisDocuments
}

// NewRedis connects to addr and pings it.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error pinging redis: %w", err)
	}
	return NewRedisFromClient(client), nil
}

// NewRedisFromClient wraps an existing client. Used by tests with miniredis
// style fakes.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{
		client: client,
		users:  &redisUsers{client: client},
		tokens: &redisRefreshTokens{client: client},
		docs:   &redisDocuments{client: client},
	}
}

func (r *Redis) Users() Users { return r.users }

func (r *Redis) RefreshTokens() RefreshTokens { return r.tokens }

func (r *Redis) Documents() Documents { return r.docs }

func (r *Redis) Close() error { return r.client.Close() }

type redisUsers struct {
	client *redis.Client
}

func userKey(id string) string           { return fmt.Sprintf("user:%s", id) }
func usernameKey(username string) string { return fmt.Sprintf("username:%s", username) }

func (r *redisUsers) Create(ctx context.Context, u *User) (*User, error) {
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	data, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	// SETNX on the username index enforces uniqueness.
	ok, err := r.client.SetNX(ctx, usernameKey(u.Username), u.ID, 0).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrAlreadyExists
	}
	if err := r.client.Set(ctx, userKey(u.ID), data, 0).Err(); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *redisUsers) GetByUsername(ctx context.Context, username string) (*User, error) {
	id, err := r.client.Get(ctx, usernameKey(username)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	data, err := r.client.Get(ctx, userKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	var u User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type redisRefreshTokens struct {
	client *redis.Client
}

func refreshKey(token string) string { return fmt.Sprintf("refresh:%s", token) }

func (r *redisRefreshTokens) Save(ctx context.Context, t *RefreshToken) error {
	ttl := time.Until(t.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, refreshKey(t.Token), data, ttl).Err()
}

func (r *redisRefreshTokens) Get(ctx context.Context, token string) (*RefreshToken, error) {
	data, err := r.client.Get(ctx, refreshKey(token)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	var t RefreshToken
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *redisRefreshTokens) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, refreshKey(token)).Err()
}

type redisDocuments struct {
	client *redis.Client
}

func docKey(id string) string          { return fmt.Sprintf("doc:%s", id) }
func userDocsKey(userID string) string { return fmt.Sprintf("docs:user:%s", userID) }

func (r *redisDocuments) get(ctx context.Context, userID, id string) (document.Document, error) {
	data, err := r.client.Get(ctx, docKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return document.Document{}, common.ErrNotFound
		}
		return document.Document{}, err
	}
	var d document.Document
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return document.Document{}, err
	}
	if d.UserID != userID {
		return document.Document{}, common.ErrNotFound
	}
	return d, nil
}

func (r *redisDocuments) save(ctx context.Context, d document.Document) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, docKey(d.ID), data, 0)
	pipe.SAdd(ctx, userDocsKey(d.UserID), d.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisDocuments) List(ctx context.Context, userID, id string) ([]document.Document, error) {
	if id != "" {
		d, err := r.get(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		return []document.Document{d}, nil
	}

	ids, err := r.client.SMembers(ctx, userDocsKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []document.Document{}, nil
	}
	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, docID := range ids {
		cmds[i] = pipe.Get(ctx, docKey(docID))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}
	docs := make([]document.Document, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var d document.Document
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
	return docs, nil
}

func (r *redisDocuments) Create(ctx context.Context, d document.Document) (document.Document, error) {
	now := time.Now().UTC()
	d.ID = uuid.NewString()
	d.CreatedAt = now
	d.UpdatedAt = now
	if err := r.save(ctx, d); err != nil {
		return document.Document{}, err
	}
	return d, nil
}

func (r *redisDocuments) Update(ctx context.Context, userID, id string, p document.Patch) (document.Document, error) {
	d, err := r.get(ctx, userID, id)
	if err != nil {
		return document.Document{}, err
	}
	p.Apply(&d, time.Now().UTC())
	if err := r.save(ctx, d); err != nil {
		return document.Document{}, err
	}
	return d, nil
}

func (r *redisDocuments) Delete(ctx context.Context, userID, id string) error {
	d, err := r.get(ctx, userID, id)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Del(ctx, docKey(id))
	pipe.SRem(ctx, userDocsKey(d.UserID), id)
	_, err = pipe.Exec(ctx)
	return err
}
