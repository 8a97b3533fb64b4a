package services

import (
	"context"
	"fmt"

	"bangalorelife-scraper/models"
	"bangalorelife-scraper/utils"
)

// WriteBatch writes items with one bulk call and, only if that fails, falls
// back to writing each item on its own. Individual failures are counted and
// collected; they never stop the remaining writes.
func WriteBatch[T any](
	ctx context.Context,
	items []T,
	bulk func(context.Context, []T) error,
	single func(context.Context, T) error,
	label func(T) string,
	logger *utils.Logger,
) models.WriteResult {
	res := models.WriteResult{Attempted: len(items)}
	if len(items) == 0 {
		return res
	}

	err := bulk(ctx, items)
	if err == nil {
		res.Written = len(items)
		return res
	}

	if logger != nil {
		logger.Warn("[writer] Bulk write of %d records failed, writing individually: %v", len(items), err)
	}
	res.UsedFallback = true
	res.Errors = append(res.Errors, fmt.Errorf("bulk: %w", err))

	return writeEach(ctx, items, single, label, logger, res)
}

func writeEach[T any](
	ctx context.Context,
	items []T,
	single func(context.Context, T) error,
	label func(T) string,
	logger *utils.Logger,
	res models.WriteResult,
) models.WriteResult {
	for _, item := range items {
		if err := single(ctx, item); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Errorf("%s: %w", label(item), err))
			if logger != nil {
				logger.Warn("[writer] Record %s rejected: %v", label(item), err)
			}
			continue
		}
		res.Written++
	}
	return res
}
