package collection

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/cshekharsharma/replicate/protocol"
)

// Options is the closed record of collection tunables, loadable from a
// TOML file (the way ops-facing config in the pack is loaded, e.g.
// config.Parse / toml.DecodeFile in zhangjinpeng1987-pd/server/config) or
// built programmatically with CollectionBuilder.
type Options struct {
	AutoSync             bool     `toml:"auto_sync"`
	HeartbeatInterval    Duration `toml:"heartbeat_interval"`
	SyncInterval         Duration `toml:"sync_interval"`
	MaxReconnectAttempts int      `toml:"max_reconnect_attempts"`
	MessageSizeLimit     int      `toml:"message_size_limit"`
}

// DefaultOptions mirrors protocol.DefaultConfig's defaults.
func DefaultOptions() Options {
	def := protocol.DefaultConfig()
	return Options{
		AutoSync:             false,
		HeartbeatInterval:    Duration{def.HeartbeatInterval},
		SyncInterval:         Duration{def.SyncInterval},
		MaxReconnectAttempts: def.MaxReconnectAttempts,
		MessageSizeLimit:     1 << 20,
	}
}

func (o Options) protocolConfig() protocol.Config {
	cfg := protocol.DefaultConfig()
	cfg.HeartbeatInterval = o.HeartbeatInterval.Duration
	cfg.SyncInterval = o.SyncInterval.Duration
	cfg.MaxReconnectAttempts = o.MaxReconnectAttempts
	return cfg
}

// CollectionBuilder assembles an Options set via functional options or a
// TOML config file; Options hands the result to NewCollection. It has no
// Build method of its own.
type CollectionBuilder struct {
	opts             Options
	conflictResolver func(conflict bool)
}

// NewCollectionBuilder starts from DefaultOptions.
func NewCollectionBuilder() *CollectionBuilder {
	return &CollectionBuilder{opts: DefaultOptions()}
}

// WithAutoSync sets Options.AutoSync. Nothing in this package reads the
// flag: NewCollection does not start the protocol, so StartSync is
// always called explicitly.
func (b *CollectionBuilder) WithAutoSync(v bool) *CollectionBuilder {
	b.opts.AutoSync = v
	return b
}

// WithHeartbeatInterval overrides the default 30s heartbeat cadence.
func (b *CollectionBuilder) WithHeartbeatInterval(d time.Duration) *CollectionBuilder {
	b.opts.HeartbeatInterval = Duration{d}
	return b
}

// WithSyncInterval overrides the default 5s quiescent resync bound.
func (b *CollectionBuilder) WithSyncInterval(d time.Duration) *CollectionBuilder {
	b.opts.SyncInterval = Duration{d}
	return b
}

// WithMaxReconnectAttempts overrides the default of 5.
func (b *CollectionBuilder) WithMaxReconnectAttempts(n int) *CollectionBuilder {
	b.opts.MaxReconnectAttempts = n
	return b
}

// WithMessageSizeLimit sets Options.MessageSizeLimit (default 1 MiB).
// The value is not passed on to the protocol: the wire codec always
// enforces its fixed wire.MaxMessageSize.
func (b *CollectionBuilder) WithMessageSizeLimit(n int) *CollectionBuilder {
	b.opts.MessageSizeLimit = n
	return b
}

// WithConflictResolver records an advisory callback, returned by
// ConflictResolver. NewCollection takes no resolver, so a Collection
// never invokes it; an Adapter invokes only what is registered through
// its own OnConflict.
func (b *CollectionBuilder) WithConflictResolver(fn func(conflict bool)) *CollectionBuilder {
	b.conflictResolver = fn
	return b
}

// WithConfigFile loads Options from a TOML file, overlaying whatever was
// set programmatically before this call.
func (b *CollectionBuilder) WithConfigFile(path string) (*CollectionBuilder, error) {
	if _, err := toml.DecodeFile(path, &b.opts); err != nil {
		return b, errors.Wrap(err, "collection: decode config file")
	}
	return b, nil
}

// Options returns the assembled option set, e.g. for inspection or for
// passing to NewCollection directly.
func (b *CollectionBuilder) Options() Options {
	return b.opts
}

// ConflictResolver returns the registered advisory callback, if any.
func (b *CollectionBuilder) ConflictResolver() func(bool) {
	return b.conflictResolver
}
