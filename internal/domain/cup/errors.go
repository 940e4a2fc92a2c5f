package cup

import (
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
)

// Ошибки домена кубка.
var (
	ErrMalformedMessage  = shared.NewDomainError("cup", "Parse", shared.ErrInvalidFormat, "malformed result message")
	ErrIllegalGuessCount = shared.NewDomainError("cup", "Parse", shared.ErrValueOutOfRange, "illegal guess count")
	ErrInvalidCupKey     = shared.NewDomainError("cup", "ParseKey", shared.ErrInvalidFormat, "invalid cup key")
	ErrPeriodNotFound    = shared.NewDomainError("cup", "FindPeriod", shared.ErrNotFound, "period not found")
	ErrPlayerNotFound    = shared.NewDomainError("cup", "FindPlayer", shared.ErrNotFound, "player not found")
	ErrPrecursorMissing  = shared.NewDomainError("cup", "RecordScore", shared.ErrPrecondition, "period was not initialized before recording")
	ErrInvalidPlayer     = shared.NewDomainError("cup", "Validate", shared.ErrInvalidInput, "invalid player id")
)
