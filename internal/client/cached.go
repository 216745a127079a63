package client

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
)

// Source tells where a loaded value came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
	SourceSeed   Source = "seed"
)

// Cached holds one value that is read from the API first and falls back to a
// local copy when the API cannot be reached. Subscribers see every published value.
type Cached[T any] struct {
	key   string
	local *LocalStore
	seed  func() T

	writeMu sync.Mutex

	mu     sync.Mutex
	value  T
	subs   map[int]chan T
	nextID int
}

func NewCached[T any](key string, local *LocalStore, seed func() T) *Cached[T] {
	return &Cached[T]{key: key, local: local, seed: seed, subs: make(map[int]chan T)}
}

func (c *Cached[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Load fetches the value remotely and mirrors it to the local key. A nil fetch, or a
// failing one, loads the local copy instead, then the seed.
func (c *Cached[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) Source {
	if fetch != nil {
		v, err := fetch(ctx)
		if err == nil {
			c.mirror(v)
			return SourceRemote
		}
		log.Printf("Failed to load %s from API, using local copy: %v", c.key, err)
	}

	var v T
	found, err := c.local.Get(c.key, &v)
	if err != nil {
		log.Printf("Failed to read local %s: %v", c.key, err)
	}
	if found {
		c.publish(v)
		return SourceLocal
	}
	if c.seed != nil {
		v = c.seed()
	}
	c.publish(v)
	return SourceSeed
}

// Mutate runs remote against the current value. When the API is unreachable, or
// remote is nil, the same change is applied by local and kept in the local copy.
// Errors the API answered with (a rejected request) are returned as is and change
// nothing. Mutations of one Cached are serialized.
func (c *Cached[T]) Mutate(ctx context.Context, remote, local func(context.Context, T) (T, error)) (T, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	current := c.Get()
	if remote != nil {
		next, err := remote(ctx, current)
		if err == nil {
			c.mirror(next)
			return next, nil
		}
		if !fallbackAllowed(err) {
			return current, err
		}
		log.Printf("API write to %s failed, applying locally: %v", c.key, err)
	}

	next, err := local(ctx, current)
	if err != nil {
		return current, err
	}
	if err := c.local.Set(c.key, next); err != nil {
		return current, err
	}
	c.publish(next)
	return next, nil
}

func (c *Cached[T]) mirror(v T) {
	if err := c.local.Set(c.key, v); err != nil {
		log.Printf("Failed to mirror %s locally: %v", c.key, err)
	}
	c.publish(v)
}

func (c *Cached[T]) publish(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	for _, ch := range c.subs {
		// latest value wins for slow readers
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Subscribe returns a channel that first yields the current value and then every
// later one. Slow readers only see the latest value. cancel closes the channel.
func (c *Cached[T]) Subscribe() (<-chan T, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	ch := make(chan T, 1)
	ch <- c.value
	c.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func fallbackAllowed(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled)
}
