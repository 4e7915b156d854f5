// Package app contains the application layer - service implementations and batch execution.
package app

import (
	"context"
	"fmt"

	"github.com/example/pnp/internal/core/effects"
	"github.com/example/pnp/internal/ports/secondary"
)

// BatchExecutor interprets planned effects against the site.
// This is the "Imperative Shell" - the only place site mutations happen.
type BatchExecutor struct {
	site secondary.SiteRepository
	log  secondary.LogWriter
}

// NewBatchExecutor creates a new BatchExecutor.
func NewBatchExecutor(site secondary.SiteRepository, log secondary.LogWriter) *BatchExecutor {
	return &BatchExecutor{site: site, log: log}
}

// Execute writes the planned log effects, then commits the remaining
// mutations as one batch. Nothing is sent when no mutation remains, and
// committed reports whether a commit happened.
func (e *BatchExecutor) Execute(ctx context.Context, webID string, effs []effects.Effect) (res *secondary.BatchResult, committed bool, err error) {
	for _, l := range effects.Logs(effs...) {
		if e.log == nil {
			break
		}
		scope, _ := l.Fields["scope"].(string)
		_ = e.log.Write(ctx, secondary.LogEntry{Severity: l.Level, Scope: scope, Message: l.Message})
	}

	batch := effects.Flatten(effs...)
	if len(batch) == 0 {
		return &secondary.BatchResult{}, false, nil
	}
	for _, eff := range batch {
		if err := validateEffect(eff); err != nil {
			return nil, false, fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}

	res, err = e.site.ExecuteBatch(ctx, webID, batch)
	if err != nil {
		return nil, false, fmt.Errorf("failed to commit batch: %w", err)
	}
	if res == nil {
		res = &secondary.BatchResult{}
	}
	return res, true, nil
}

func validateEffect(eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.FieldEffect:
		switch typed.Operation {
		case effects.OpCreate:
			if typed.SchemaXML == "" {
				return fmt.Errorf("field create without schema")
			}
		case effects.OpUpdateSchema, effects.OpSetDefault:
			if typed.FieldID == "" {
				return fmt.Errorf("field %s without id", typed.Operation)
			}
		default:
			return fmt.Errorf("unknown field operation: %s", typed.Operation)
		}
	case effects.ContentTypeEffect:
		switch typed.Operation {
		case effects.OpCreate:
			if typed.Name == "" {
				return fmt.Errorf("content type create without name")
			}
		case effects.OpUpdate, effects.OpDelete:
			if typed.ContentTypeID == "" {
				return fmt.Errorf("content type %s without id", typed.Operation)
			}
		default:
			return fmt.Errorf("unknown content type operation: %s", typed.Operation)
		}
	case effects.FieldLinkEffect:
		switch typed.Operation {
		case effects.OpAdd, effects.OpUpdate, effects.OpReorder:
			if typed.ContentTypeID == "" {
				return fmt.Errorf("field link %s without content type", typed.Operation)
			}
		default:
			return fmt.Errorf("unknown field link operation: %s", typed.Operation)
		}
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
	return nil
}
