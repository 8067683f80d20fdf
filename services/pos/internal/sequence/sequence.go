// Package sequence hands out the human facing numbers of the POS: order
// numbers, daily token numbers for takeaway and delivery, and bill numbers.
package sequence

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Generator returns the next value of a named counter, starting at 1.
type Generator interface {
	Next(ctx context.Context, name string) (int64, error)
}

type Memory struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemory() *Memory {
	return &Memory{counters: make(map[string]int64)}
}

func (m *Memory) Next(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
	return m.counters[name], nil
}

// Redis keeps counters in Redis so several POS instances share them.
// Daily counters expire two days after first use.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "pos:seq:"}
}

func (r *Redis) Next(ctx context.Context, name string) (int64, error) {
	key := r.prefix + name
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cannot increment sequence %s: %w", name, err)
	}
	if n == 1 && isDaily(name) {
		if err := r.client.Expire(ctx, key, 48*time.Hour).Err(); err != nil {
			return 0, fmt.Errorf("cannot expire sequence %s: %w", name, err)
		}
	}
	return n, nil
}

func isDaily(name string) bool {
	return strings.Contains(name, ":")
}

// Numbers formats counters into the numbers printed on orders and bills.
type Numbers struct {
	gen Generator
	now func() time.Time
}

func NewNumbers(gen Generator, now func() time.Time) *Numbers {
	if now == nil {
		now = time.Now
	}
	return &Numbers{gen: gen, now: now}
}

// OrderNumber returns ORD- followed by six digits.
func (n *Numbers) OrderNumber(ctx context.Context) (string, error) {
	v, err := n.gen.Next(ctx, "order")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%06d", v), nil
}

// Token returns the next token number of the day.
func (n *Numbers) Token(ctx context.Context) (int, error) {
	v, err := n.gen.Next(ctx, "token:"+n.day())
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// BillNumber returns BILL-YYYYMMDD-NNNNN, restarting every day.
func (n *Numbers) BillNumber(ctx context.Context) (string, error) {
	day := n.day()
	v, err := n.gen.Next(ctx, "bill:"+day)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BILL-%s-%05d", day, v), nil
}

func (n *Numbers) day() string {
	return n.now().Format("20060102")
}
