package repository

import (
	"context"

	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/pkg/types"
)

// DefaultTheme is the theme of a freshly created settings document.
const DefaultTheme = "dark"

var appConfigFilter = docstore.Filter{"type": types.AppConfigType}

// AppConfig returns the settings document, creating it on first use.
func (r *Repository) AppConfig(ctx context.Context) (*types.AppConfig, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}
	return r.appConfig(ctx, st)
}

func (r *Repository) appConfig(ctx context.Context, st docstore.Store) (*types.AppConfig, error) {
	found, err := list[types.AppConfig](ctx, st, docstore.Config, appConfigFilter)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		return &found[0], nil
	}

	cfg := &types.AppConfig{
		ID:        types.NewID(),
		Type:      types.AppConfigType,
		Theme:     DefaultTheme,
		CreatedAt: r.timestamp(),
	}
	if err := insert(ctx, st, docstore.Config, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UpdateAppConfig applies patch to the settings document.
func (r *Repository) UpdateAppConfig(ctx context.Context, patch types.AppConfigPatch) (*types.AppConfig, error) {
	if patch.Theme != nil {
		var v validator
		v.required("theme", patch.Theme)
		if v.err != nil {
			return nil, v.err
		}
	}

	st, err := r.store()
	if err != nil {
		return nil, err
	}

	current, err := r.appConfig(ctx, st)
	if err != nil {
		return nil, err
	}

	set, err := r.patchSet(patch)
	if err != nil {
		return nil, err
	}
	cfg, err := update[types.AppConfig](ctx, st, docstore.Config, current.ID, set)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return current, nil
	}
	return cfg, nil
}
