package leaderboard

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Cache определяет контракт кеширования посчитанных таблиц.
// Таблица всегда может быть пересчитана из результатов, поэтому
// кеш необязателен и его ошибки не должны ломать запросы.
type Cache interface {
	// Get возвращает снапшот окна. ok == false, если кеш пуст.
	Get(ctx context.Context, window Window) (snap *Snapshot, ok bool, err error)

	// Set сохраняет снапшот с TTL.
	Set(ctx context.Context, snap *Snapshot, ttl time.Duration) error

	// InvalidateAll сбрасывает все закешированные таблицы.
	InvalidateAll(ctx context.Context) error
}
