package library

import (
	"context"
	"time"
)

// KV is the part of a redis client the mirror needs.
type KV interface {
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Lookup(ctx context.Context, key string) (string, bool, error)
}

// RedisMirror keeps a copy of every saved lyric file in redis so a file
// that could only be exported can still be found again.
type RedisMirror struct {
	kv     KV
	prefix string
	ttl    time.Duration
}

func NewRedisMirror(kv KV, prefix string, ttl time.Duration) *RedisMirror {
	return &RedisMirror{kv: kv, prefix: prefix, ttl: ttl}
}

func (m *RedisMirror) Name() string {
	return "redis"
}

func (m *RedisMirror) Put(ctx context.Context, name, content string) error {
	return m.kv.SetWithExpiration(ctx, m.prefix+name, content, m.ttl)
}

func (m *RedisMirror) Get(ctx context.Context, name string) (string, bool, error) {
	return m.kv.Lookup(ctx, m.prefix+name)
}
