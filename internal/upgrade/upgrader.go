// Package upgrade implements the content upgrade engine.
//
// An upgrade loads the target schema of a library, runs the library's own
// upgrade hooks over the requested version range and then walks the schema
// to find embedded sub-content, which is upgraded recursively against its
// own versions. All work of one upgrade runs strictly in order on a private
// serial.Loop; distinct upgrades share nothing mutable.
package upgrade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/h5pup/internal/serial"
	"github.com/leapstack-labs/h5pup/pkg/core"
	"github.com/leapstack-labs/h5pup/pkg/params"
)

// Config holds upgrader configuration.
type Config struct {
	// Loader resolves library schemas (required)
	Loader core.LibraryLoader
	// Hooks provides registered upgrade hooks (required)
	Hooks core.HookSource
	// Sink receives hook failure diagnostics (optional, logs to Logger if nil)
	Sink core.DiagnosticSink
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// RangeMode selects which hooks fall inside a version range
	RangeMode RangeMode
}

// Upgrader upgrades content parameters between library versions.
// It is safe for concurrent use when its collaborators are.
type Upgrader struct {
	loader    core.LibraryLoader
	hooks     core.HookSource
	sink      core.DiagnosticSink
	logger    *slog.Logger
	rangeMode RangeMode
}

// New creates an upgrader.
func New(cfg Config) (*Upgrader, error) {
	if cfg.Loader == nil {
		return nil, errors.New("upgrade: library loader is required")
	}
	if cfg.Hooks == nil {
		return nil, errors.New("upgrade: hook source is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sink := cfg.Sink
	if sink == nil {
		sink = core.LogSink{Logger: logger}
	}

	return &Upgrader{
		loader:    cfg.Loader,
		hooks:     cfg.Hooks,
		sink:      sink,
		logger:    logger,
		rangeMode: cfg.RangeMode,
	}, nil
}

// Upgrade upgrades params of library name from version from to version to.
// On failure no partial result is returned.
func (u *Upgrader) Upgrade(ctx context.Context, name string, from, to core.Version, p any) (any, error) {
	r := &run{
		Upgrader: u,
		ctx:      ctx,
		loop:     serial.NewLoop(),
	}

	var result any
	r.loop.Post(func() {
		r.upgrade(name, from, to, p, func(out any, err error) {
			result = out
			r.loop.Stop(err)
		})
	})

	if err := r.loop.Run(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// UpgradeContent decodes serialized parameters, upgrades them and encodes
// the result in the same compact JSON form. contentID only identifies the
// content in errors.
//
// The top level must be a JSON object. Arrays are rejected as broken
// parameters too, although H5P's browser-side upgrader lets them through
// to the hooks.
func (u *Upgrader) UpgradeContent(ctx context.Context, name string, from, to core.Version, serialized, contentID string) (string, error) {
	decoded, err := params.Decode([]byte(serialized))
	if err != nil {
		return "", &core.ParamsBrokenError{ContentID: contentID, Err: err}
	}
	if _, ok := decoded.(*params.Object); !ok {
		return "", &core.ParamsBrokenError{
			ContentID: contentID,
			Err:       fmt.Errorf("expected an object, got %s", describe(decoded)),
		}
	}

	u.logger.Debug("upgrading content", "content_id", contentID, "library", name,
		"from", from.String(), "to", to.String())

	upgraded, err := u.Upgrade(ctx, name, from, to, decoded)
	if err != nil {
		return "", err
	}

	out, err := params.Encode(upgraded)
	if err != nil {
		return "", fmt.Errorf("failed to encode upgraded parameters of content %s: %w", contentID, err)
	}
	return string(out), nil
}

// run is the state of a single Upgrade call.
type run struct {
	*Upgrader
	ctx  context.Context
	loop *serial.Loop
}

// upgrade loads the target schema, runs the library's hooks and walks the
// schema fields for nested sub-content.
func (r *run) upgrade(name string, from, to core.Version, p any, done func(any, error)) {
	r.logger.Debug("upgrading library", "library", name, "from", from.String(), "to", to.String())

	lib, err := r.loader.LoadLibrary(r.ctx, name, to)
	if err != nil {
		done(nil, err)
		return
	}

	r.dispatchHooks(lib, from, to, p, func(p any, err error) {
		if err != nil {
			done(nil, err)
			return
		}

		obj, ok := p.(*params.Object)
		if !ok {
			done(p, nil)
			return
		}

		out := obj
		serial.Each(r.loop, serial.Slice(lib.Semantics), func(_ int, field core.Field, advance func(error)) {
			v, present := out.Get(field.Name)
			r.walkField(field, v, present, func(nv any, changed bool, err error) {
				if err == nil && changed {
					if out == obj {
						out = obj.Clone()
					}
					out.Set(field.Name, nv)
				}
				advance(err)
			})
		}, func(err error) {
			if err != nil {
				done(nil, err)
				return
			}
			done(out, nil)
		})
	})
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}
