package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/buildtrack/buildtrack/pkg/types"
)

var null = []byte("null")

// bind decodes payload into v. An empty or null payload leaves v zero.
func bind(payload json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, null) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

type idPayload struct {
	ID string `json:"id"`
}

func (p idPayload) parse() (types.ID, error) {
	return types.ParseID(p.ID)
}

type projectRef struct {
	ProjectID string `json:"projectId"`
}

func (p projectRef) parse() (types.ID, error) {
	return types.ParseID(p.ProjectID)
}

type updatePayload[P any] struct {
	ID      string `json:"id"`
	Updates P      `json:"updates"`
}

// canonicalRef parses a project reference inside an input. An empty
// reference is left for validation to report.
func canonicalRef(id *types.ID) error {
	if id.IsZero() {
		return nil
	}
	parsed, err := types.ParseID(id.String())
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// optional keeps a missing record out of the envelope instead of
// rendering a typed nil as null data.
func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return v
}
