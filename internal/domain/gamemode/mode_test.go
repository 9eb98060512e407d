package gamemode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := map[string]Mode{
		"":       Standard,
		"0":      Standard,
		"taiko":  Taiko,
		"CTB":    Catch,
		" 3 ":    Mania,
		"fruits": Catch,
	}
	for raw, want := range cases {
		got, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := Parse("7")
	assert.Error(t, err)
}

func TestMode_Valid(t *testing.T) {
	t.Parallel()

	for _, m := range All {
		assert.True(t, m.Valid())
	}
	assert.False(t, Mode(4).Valid())
	assert.False(t, Mode(-1).Valid())
	assert.Equal(t, "mode(9)", Mode(9).String())
}
