package domain

import "strings"

// ReconstructContent joins chunks in order, dropping the bytes each chunk
// shares with its predecessor. When stored offsets are inconsistent the
// chunks are concatenated as-is.
func ReconstructContent(records []Record) string {
	var b strings.Builder
	covered := 0

	for i, r := range records {
		c := r.Chunk
		if c.End-c.Start != len(c.Content) || (i > 0 && c.Start > covered) || c.Start < 0 {
			return concatChunks(records)
		}
		if c.End <= covered {
			continue
		}
		skip := max(0, covered-c.Start)
		b.WriteString(c.Content[skip:])
		covered = c.End
	}
	return b.String()
}

func concatChunks(records []Record) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.Chunk.Content)
	}
	return b.String()
}
