// Package identity provides the anonymous per-profile session identifier
// sent with every chat request.
package identity

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ashureev/tutor-chat/internal/clock"
	"github.com/ashureev/tutor-chat/internal/store"
)

const (
	// StorageKey is the local storage key holding the identifier.
	StorageKey = "studentId"
	// GeneratedPrefix prefixes identifiers synthesized by this client.
	GeneratedPrefix = "web_user_"
)

// Provider returns the persisted session identifier, creating it on first use.
type Provider struct {
	kv    store.KeyValue
	clock clock.Clock
}

// NewProvider creates a Provider backed by kv. A nil clock uses system time.
func NewProvider(kv store.KeyValue, clk clock.Clock) *Provider {
	if clk == nil {
		clk = clock.System{}
	}
	return &Provider{kv: kv, clock: clk}
}

// SessionID reads the stored identifier. If none is stored (or the stored
// value is empty) it synthesizes web_user_<epoch-millis>, persists it and
// returns it. A previously stored value is returned verbatim.
func (p *Provider) SessionID(ctx context.Context) (string, error) {
	id, ok, err := p.kv.Get(ctx, StorageKey)
	if err != nil {
		return "", fmt.Errorf("read session id: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}

	id = generate(p.clock)
	if err := p.kv.Set(ctx, StorageKey, id); err != nil {
		return "", fmt.Errorf("persist session id: %w", err)
	}
	return id, nil
}

// Reset forgets the stored identifier so the next SessionID call creates a
// fresh one.
func (p *Provider) Reset(ctx context.Context) error {
	if err := p.kv.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("reset session id: %w", err)
	}
	return nil
}

func generate(clk clock.Clock) string {
	return GeneratedPrefix + strconv.FormatInt(clk.Now().UnixMilli(), 10)
}
