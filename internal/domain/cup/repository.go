package cup

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Контракт хранилища результатов. Реализации находятся в
// infrastructure/persistence (postgres и memory).
// ══════════════════════════════════════════════════════════════════════════════

// ScoreReader - операции чтения результатов и рекордов.
type ScoreReader interface {
	// HighScore возвращает рекорд дня.
	// Возвращает ErrPeriodNotFound, если день не инициализирован.
	HighScore(ctx context.Context, period PeriodID) (HighScore, error)

	// LatestPeriod возвращает наибольший инициализированный номер дня.
	// Возвращает ErrPeriodNotFound, если дней ещё нет.
	LatestPeriod(ctx context.Context) (PeriodID, error)

	// ScoresForPeriod возвращает все результаты дня в порядке записи.
	ScoresForPeriod(ctx context.Context, period PeriodID) ([]ScoreRecord, error)

	// PeriodResults возвращает рекорд и результаты дня из одного снимка.
	// Возвращает ErrPeriodNotFound, если день не инициализирован.
	PeriodResults(ctx context.Context, period PeriodID) (HighScore, []ScoreRecord, error)

	// ScoresInCup возвращает все результаты, засчитанные в кубок.
	ScoresInCup(ctx context.Context, key CupKey) ([]ScoreRecord, error)

	// AllScores возвращает все результаты за всё время.
	AllScores(ctx context.Context) ([]ScoreRecord, error)

	// PlayerScoresSince возвращает результаты игрока начиная с дня from.
	PlayerScoresSince(ctx context.Context, player PlayerID, from PeriodID) ([]ScoreRecord, error)

	// PlayerScoresInCup возвращает результаты игрока в кубке.
	PlayerScoresInCup(ctx context.Context, player PlayerID, key CupKey) ([]ScoreRecord, error)

	// Player возвращает игрока по ID.
	// Возвращает ErrPlayerNotFound, если игрок неизвестен.
	Player(ctx context.Context, id PlayerID) (Player, error)

	// Players возвращает всех известных игроков.
	Players(ctx context.Context) ([]Player, error)

	// MedalTally считает медали игроков по всем дням.
	// Медаль даёт результат, совпадающий со слотом рекорда своего дня.
	MedalTally(ctx context.Context) (map[PlayerID]MedalCount, error)
}

// ScoreTx - операции записи внутри одной транзакции.
type ScoreTx interface {
	// EnsurePlayer создаёт игрока или обновляет его имя.
	EnsurePlayer(ctx context.Context, player Player) error

	// EnsurePeriod создаёт день с пустым рекордом, если его ещё нет.
	EnsurePeriod(ctx context.Context, period PeriodID) error

	// RecordScore сохраняет результат.
	// Возвращает false без ошибки, если у игрока уже есть результат за этот день.
	// Возвращает ErrPrecursorMissing, если день не инициализирован.
	RecordScore(ctx context.Context, rec ScoreRecord) (bool, error)

	// HighScore возвращает рекорд дня с блокировкой до конца транзакции.
	HighScore(ctx context.Context, period PeriodID) (HighScore, error)

	// SaveHighScore перезаписывает рекорд дня.
	SaveHighScore(ctx context.Context, hs HighScore) error
}

// ScoreStore - хранилище результатов.
type ScoreStore interface {
	ScoreReader

	// WithinTx выполняет fn атомарно. Ошибка из fn откатывает все изменения.
	WithinTx(ctx context.Context, fn func(tx ScoreTx) error) error
}

// ─────────────────────────────────────────────────────────────────────────────
// Cup state
// ─────────────────────────────────────────────────────────────────────────────

// CupStateStore хранит ключ текущего кубка и историю завершённых кубков.
type CupStateStore interface {
	// HeldCupKey возвращает сохранённый ключ. ok == false, если ключа ещё нет.
	HeldCupKey(ctx context.Context) (key CupKey, ok bool, err error)

	// AdoptCupKey сохраняет ключ, если никакого ключа ещё нет.
	AdoptCupKey(ctx context.Context, key CupKey) error

	// AdvanceCup атомарно записывает итог кубка from и переключает ключ на to.
	// Возвращает false, если сохранённый ключ уже не равен from
	// (переход сделал другой экземпляр).
	AdvanceCup(ctx context.Context, from, to CupKey, result CupResult) (bool, error)

	// CupResults возвращает итоги завершённых кубков, новые первыми.
	CupResults(ctx context.Context, limit int) ([]CupResult, error)
}
