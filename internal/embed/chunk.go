package embed

import "strings"

// DefaultChunkSize is the target chunk length in runes.
const DefaultChunkSize = 2000

// Chunk splits text into pieces of at most size runes, preferring paragraph
// boundaries. Short paragraphs are merged; oversized ones are hard-split.
func Chunk(text string, size int) []string {

	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		for len([]rune(para)) > size {
			runes := []rune(para)
			flush()
			chunks = append(chunks, strings.TrimSpace(string(runes[:size])))
			para = strings.TrimSpace(string(runes[size:]))
		}
		if para == "" {
			continue
		}

		if current.Len() > 0 && len([]rune(current.String()))+len([]rune(para))+2 > size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}
