package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumericFromText(t *testing.T) {
	testCases := []struct {
		text     string
		expected int
	}{
		{"", 0},
		{"N/A", 0},
		{"-", 0},
		{"500", 500},
		{"1,234", 1234},
		{"12 of 34", 12},
		{"$ 2,500.00", 2500},
		{"  42  ", 42},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, NumericFromText(test.text), "input %q", test.text)
	}
}

func TestExcerpt(t *testing.T) {
	require.Equal(t, "abc", Excerpt("abc", 200))
	require.Equal(t, "ab", Excerpt("abcdef", 2))
	require.Equal(t, "", Excerpt("", 200))
}
