package cup

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESULT MESSAGE PARSER
// Разбирает строку вида "Wordle 547 3/6" в пару (день, попытки).
// ══════════════════════════════════════════════════════════════════════════════

// resultPrefix - обязательный префикс, регистр важен.
const resultPrefix = "Wordle "

// Result - разобранный результат игры.
type Result struct {
	Period PeriodID
	Guess  GuessCount
}

// ParseResult разбирает текст сообщения с результатом.
//
// После префикса ожидается номер дня, один пробел и символ результата:
// X или 0 означают провал, 1–6 - количество попыток. Всё, что идёт после
// символа результата ("/6", сетка эмодзи), игнорируется. Номер дня может
// содержать разделитель тысяч ("1,234").
//
// Возвращает ErrMalformedMessage, если нет префикса, номера дня или
// символа результата, и ErrIllegalGuessCount, если символ результата
// недопустим.
func ParseResult(text string) (Result, error) {
	rest, ok := strings.CutPrefix(text, resultPrefix)
	if !ok {
		return Result{}, ErrMalformedMessage
	}

	period, rest, err := parsePeriod(rest)
	if err != nil {
		return Result{}, err
	}

	sep, size := utf8.DecodeRuneInString(rest)
	if size == 0 || !unicode.IsSpace(sep) {
		return Result{}, ErrMalformedMessage.WithDetail(fmt.Errorf("expected space after period %d", period))
	}
	rest = rest[size:]

	token, size := utf8.DecodeRuneInString(rest)
	if size == 0 || unicode.IsSpace(token) {
		return Result{}, ErrMalformedMessage.WithDetail(fmt.Errorf("missing score for period %d", period))
	}

	guess, err := parseGuess(token)
	if err != nil {
		return Result{}, err
	}

	return Result{Period: period, Guess: guess}, nil
}

// parsePeriod читает номер дня с начала строки и возвращает остаток.
func parsePeriod(s string) (PeriodID, string, error) {
	end := 0
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		// Разделитель тысяч допустим только между цифрами.
		if c == ',' && end > 0 && end+1 < len(s) && isDigit(s[end+1]) {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, s, ErrMalformedMessage.WithDetail(fmt.Errorf("missing period id"))
	}

	digits := strings.ReplaceAll(s[:end], ",", "")
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, s, ErrMalformedMessage.WithDetail(err)
	}

	return PeriodID(n), s[end:], nil
}

func parseGuess(token rune) (GuessCount, error) {
	switch {
	case token == 'X' || token == '0':
		return GuessFailed, nil
	case token >= '1' && token <= '6':
		return GuessCount(token - '0'), nil
	default:
		return 0, ErrIllegalGuessCount.WithDetail(fmt.Errorf("score token %q", token))
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// LooksLikeResult возвращает true, если сообщение начинается с префикса
// результата. Используется роутером, чтобы отличать результаты от болтовни.
func LooksLikeResult(text string) bool {
	return strings.HasPrefix(text, strings.TrimSpace(resultPrefix))
}
