package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain fields",
			line: "a.jpg b.jpg",
			want: []string{"a.jpg", "b.jpg"},
		},
		{
			name: "double quoted path with spaces",
			line: `"my photos/a.jpg" b.jpg`,
			want: []string{"my photos/a.jpg", "b.jpg"},
		},
		{
			name: "single quotes",
			line: "'path with spaces/image.jpg'",
			want: []string{"path with spaces/image.jpg"},
		},
		{
			name: "quote inside field",
			line: `pre"mid dle"post`,
			want: []string{"premid dlepost"},
		},
		{
			name: "unterminated quote consumes the rest",
			line: `"unterminated path`,
			want: []string{"unterminated path"},
		},
		{
			name: "collapses repeated whitespace",
			line: "  a.jpg \t b.jpg  ",
			want: []string{"a.jpg", "b.jpg"},
		},
		{
			name: "empty line",
			line: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, splitArgs(tt.line))
		})
	}
}

func TestIsExit(t *testing.T) {
	t.Parallel()

	assert.True(t, isExit("exit"))
	assert.True(t, isExit("Quit"))
	assert.True(t, isExit("q"))
	assert.False(t, isExit("test dir"))
	assert.False(t, isExit("query.jpg"))
}
