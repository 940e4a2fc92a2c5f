package cup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResult(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Result
		wantErr error
	}{
		{name: "plain", text: "Wordle 547 3/6", want: Result{Period: 547, Guess: 3}},
		{name: "failed X", text: "Wordle 547 X/6", want: Result{Period: 547, Guess: 0}},
		{name: "zero means failed", text: "Wordle 12 0/6", want: Result{Period: 12, Guess: 0}},
		{name: "hole in one", text: "Wordle 1 1/6", want: Result{Period: 1, Guess: 1}},
		{name: "six", text: "Wordle 900 6/6*", want: Result{Period: 900, Guess: 6}},
		{name: "trailing grid ignored", text: "Wordle 547 4/6\n\n⬛🟨⬛⬛⬛\n🟩🟩🟩🟩🟩", want: Result{Period: 547, Guess: 4}},
		{name: "thousands separator", text: "Wordle 1,234 2/6", want: Result{Period: 1234, Guess: 2}},

		{name: "seven", text: "Wordle 547 7/6", wantErr: ErrIllegalGuessCount},
		{name: "letter", text: "Wordle 547 Y/6", wantErr: ErrIllegalGuessCount},
		{name: "lowercase x", text: "Wordle 547 x/6", wantErr: ErrIllegalGuessCount},

		{name: "lowercase prefix", text: "wordle 547 3/6", wantErr: ErrMalformedMessage},
		{name: "no prefix", text: "hello 547 3/6", wantErr: ErrMalformedMessage},
		{name: "missing period", text: "Wordle  3/6", wantErr: ErrMalformedMessage},
		{name: "missing score", text: "Wordle 547", wantErr: ErrMalformedMessage},
		{name: "missing score after space", text: "Wordle 547 ", wantErr: ErrMalformedMessage},
		{name: "empty", text: "", wantErr: ErrMalformedMessage},
		{name: "period overflow", text: "Wordle 99999999999999999999 3/6", wantErr: ErrMalformedMessage},
		{name: "leading separator", text: "Wordle ,234 3/6", wantErr: ErrMalformedMessage},
		{name: "dot is not a separator", text: "Wordle 1.234 5/6", wantErr: ErrMalformedMessage},
		{name: "trailing separator", text: "Wordle 1, 3/6", wantErr: ErrMalformedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResult(tt.text)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResult_ErrorKinds(t *testing.T) {
	_, err := ParseResult("Wordle 547 9/6")
	assert.False(t, errors.Is(err, ErrMalformedMessage))

	_, err = ParseResult("Wordle abc 3/6")
	assert.False(t, errors.Is(err, ErrIllegalGuessCount))
}

func TestLooksLikeResult(t *testing.T) {
	assert.True(t, LooksLikeResult("Wordle 547 3/6"))
	assert.True(t, LooksLikeResult("Wordle"))
	assert.False(t, LooksLikeResult("wordle 547 3/6"))
	assert.False(t, LooksLikeResult("was that a wordle?"))
}
