package chunk

import "strings"

// separators in preference order: paragraph break, line break, word break.
// When none occurs in the text it is cut at chunk boundaries directly.
var separators = []string{"\n\n", "\n", " "}

// splitRecursive splits text into pieces of at most chunkSize characters,
// preferring to cut at the coarsest separator present and carrying up to
// overlapSize characters of trailing context into the next piece.
func splitRecursive(text string, chunkSize, overlapSize int) []string {
	return splitWith(text, separators, chunkSize, overlapSize)
}

func splitWith(text string, seps []string, chunkSize, overlapSize int) []string {
	sep := ""
	var rest []string
	for i, s := range seps {
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var parts []string
	if sep == "" {
		parts = []string{text}
	} else {
		parts = strings.Split(text, sep)
	}

	var out []string
	var good []string
	for _, p := range parts {
		if len(p) <= chunkSize {
			good = append(good, p)
			continue
		}
		// Oversized part: flush what we have, then descend with finer separators.
		out = append(out, merge(good, sep, chunkSize, overlapSize)...)
		good = nil
		if len(rest) > 0 {
			out = append(out, splitWith(p, rest, chunkSize, overlapSize)...)
		} else {
			out = append(out, hardCut(p, chunkSize, overlapSize)...)
		}
	}
	out = append(out, merge(good, sep, chunkSize, overlapSize)...)

	return out
}

// merge greedily packs parts into chunks of at most chunkSize, rejoining
// them with the separator they were split on. When a chunk closes, its
// trailing parts up to overlapSize characters seed the next chunk.
func merge(parts []string, sep string, chunkSize, overlapSize int) []string {
	var out []string
	var current []string
	total := 0

	joinLen := func(n int) int {
		if n > 0 {
			return len(sep)
		}
		return 0
	}

	for _, p := range parts {
		if total+len(p)+joinLen(len(current)) > chunkSize && len(current) > 0 {
			if doc := join(current, sep); doc != "" {
				out = append(out, doc)
			}
			// Retire leading parts until the retained tail fits the overlap
			// and leaves room for the incoming part.
			for total > overlapSize || (total+len(p)+joinLen(len(current)) > chunkSize && total > 0) {
				total -= len(current[0]) + joinLen(len(current)-1)
				current = current[1:]
			}
		}
		current = append(current, p)
		total += len(p) + joinLen(len(current)-1)
	}

	if doc := join(current, sep); doc != "" {
		out = append(out, doc)
	}
	return out
}

func join(parts []string, sep string) string {
	return strings.TrimSpace(strings.Join(parts, sep))
}

// hardCut slices text that contains no separator at all.
func hardCut(text string, chunkSize, overlapSize int) []string {
	step := chunkSize - overlapSize
	if step <= 0 {
		step = chunkSize
	}

	var out []string
	for i := 0; i < len(text); i += step {
		end := i + chunkSize
		if end >= len(text) {
			out = append(out, text[i:])
			break
		}
		out = append(out, text[i:end])
	}
	return out
}
