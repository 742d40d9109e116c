package vectorindex

import (
	"strings"
	"unicode/utf8"
)

// Chunk is a window of indexed text and its rune offset in the source.
type Chunk struct {
	Text  string
	Start int
}

var separators = []string{"\n\n", "\n", " ", ""}

// Split breaks text into chunks of at most size runes, preferring paragraph,
// then line, then word boundaries. Adjacent chunks share up to overlap runes.
func Split(text string, size, overlap int) []Chunk {
	if strings.TrimSpace(text) == "" || size <= 0 {
		return nil
	}
	if overlap >= size {
		overlap = size - 1
	}

	pieces := splitRecursive(text, separators, size, overlap)

	chunks := make([]Chunk, 0, len(pieces))
	byteOffset, prevLen := 0, 0
	for _, p := range pieces {
		from := byteOffset + prevLen - overlapBytes(text, byteOffset, prevLen, overlap)
		if from < 0 || from > len(text) {
			from = 0
		}
		idx := strings.Index(text[from:], p)
		if idx < 0 {
			idx = strings.Index(text, p)
			from = 0
		}
		byteOffset = from + idx
		prevLen = len(p)
		chunks = append(chunks, Chunk{Text: p, Start: utf8.RuneCountInString(text[:byteOffset])})
	}
	return chunks
}

// overlapBytes converts the trailing overlap of the previous chunk from runes to bytes.
func overlapBytes(text string, start, length, overlap int) int {
	if length == 0 {
		return 0
	}
	prev := text[start : start+length]
	n := 0
	for i := len(prev); i > 0 && overlap > 0; overlap-- {
		_, w := utf8.DecodeLastRuneInString(prev[:i])
		i -= w
		n += w
	}
	return n
}

func splitRecursive(text string, seps []string, size, overlap int) []string {
	sep, rest := seps[len(seps)-1], []string(nil)
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep, rest = s, seps[i+1:]
			break
		}
	}

	var out, good []string
	for _, piece := range strings.Split(text, sep) {
		if piece == "" {
			continue
		}
		if runeLen(piece) < size {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, merge(good, sep, size, overlap)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, splitRecursive(piece, rest, size, overlap)...)
		}
	}
	if len(good) > 0 {
		out = append(out, merge(good, sep, size, overlap)...)
	}
	return out
}

func merge(pieces []string, sep string, size, overlap int) []string {
	sepLen := runeLen(sep)

	var (
		out     []string
		current []string
		total   int
	)

	joinedLen := func(n int) int {
		if len(current) > 0 {
			return total + n + sepLen
		}
		return total + n
	}

	for _, p := range pieces {
		n := runeLen(p)
		if joinedLen(n) > size && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
				out = append(out, doc)
			}
			for total > overlap || (joinedLen(n) > size && total > 0) {
				total -= runeLen(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, p)
		total += n
	}

	if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
		out = append(out, doc)
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
