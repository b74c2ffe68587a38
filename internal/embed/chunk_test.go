package embed

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChunk(t *testing.T) {

	tt := []struct {
		name string
		text string
		size int
		want []string
	}{
		{
			name: "empty input",
			text: "",
			size: 10,
			want: nil,
		},
		{
			name: "short paragraphs merged",
			text: "one\n\ntwo\n\nthree",
			size: 100,
			want: []string{"one\n\ntwo\n\nthree"},
		},
		{
			name: "split at paragraph boundary",
			text: "aaaa\n\nbbbb\n\ncccc",
			size: 10,
			want: []string{"aaaa\n\nbbbb", "cccc"},
		},
		{
			name: "oversized paragraph hard split",
			text: strings.Repeat("x", 25),
			size: 10,
			want: []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			got := Chunk(tc.text, tc.size)
			if !cmp.Equal(got, tc.want) {
				t.Errorf("unexpected chunks: %v", cmp.Diff(tc.want, got))
			}
		})
	}
}
