// Package chunk splits extracted document text and tables into bounded,
// overlap-aware segments with stable content-derived identity. The pipeline
// is pure: it owns no storage and the same input always yields the same
// chunks and ids, which makes re-ingestion idempotent.
package chunk

import (
	"crypto/md5" //nolint:gosec // content addressing, not security
	"encoding/hex"
	"strings"
	"unicode"
)

// Type distinguishes text chunks from table chunks.
type Type string

const (
	// TypeText marks a chunk of section text.
	TypeText Type = "text"
	// TypeTable marks a chunk of table rows.
	TypeTable Type = "table"
)

// Metadata carries enough context to reconstruct where a chunk came from.
// Header, StartRow and RowCount are set for table chunks only.
type Metadata struct {
	Type     Type   `json:"type"`
	Header   string `json:"header,omitempty"`
	StartRow int    `json:"start_row,omitempty"`
	RowCount int    `json:"row_count,omitempty"`
}

// Chunk is one retrieval-sized segment of a document.
type Chunk struct {
	Text string
	Meta Metadata
}

// ID returns the chunk's storage identity: the md5 hex digest of its text.
// Re-ingesting unchanged content yields identical ids, so upsert is a no-op.
func (c Chunk) ID() string {
	return ID(c.Text)
}

// ID hashes chunk text into a stable identifier.
func ID(text string) string {
	sum := md5.Sum([]byte(text)) //nolint:gosec // content addressing, not security
	return hex.EncodeToString(sum[:])
}

// SplitSections joins section strings and splits them into overlapping text
// chunks of at most chunkSize characters. Two post-processing passes run on
// the raw splits: all-uppercase chunks are treated as headings and merged
// forward into the following chunk, and consecutive bullet-list chunks are
// coalesced into one.
func SplitSections(sections []string, chunkSize, overlapSize int) []Chunk {
	text := strings.Join(sections, "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	raw := splitRecursive(text, chunkSize, overlapSize)

	merged := mergeHeadings(raw)
	coalesced := coalesceBullets(merged)

	chunks := make([]Chunk, 0, len(coalesced))
	for _, t := range coalesced {
		chunks = append(chunks, Chunk{Text: t, Meta: Metadata{Type: TypeText}})
	}
	return chunks
}

// mergeHeadings folds a chunk into its predecessor when the predecessor is
// entirely upper-case (a standalone heading should not be its own chunk).
func mergeHeadings(raw []string) []string {
	var out []string
	prev := ""
	for _, c := range raw {
		if prev != "" && isUpper(prev) && len(out) > 0 {
			out[len(out)-1] += "\n" + c
		} else {
			out = append(out, c)
		}
		prev = c
	}
	return out
}

// coalesceBullets buffers consecutive chunks that start with a bullet marker
// and flushes them as a single chunk when a non-bullet chunk arrives.
func coalesceBullets(chunks []string) []string {
	var out []string
	var buffer []string

	flush := func() {
		if len(buffer) > 0 {
			out = append(out, strings.Join(buffer, "\n"))
			buffer = nil
		}
	}

	for _, c := range chunks {
		if isBullet(c) {
			buffer = append(buffer, c)
			continue
		}
		flush()
		out = append(out, c)
	}
	flush()

	return out
}

func isBullet(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "-") ||
		strings.HasPrefix(trimmed, "•") ||
		strings.HasPrefix(trimmed, "*")
}

// isUpper reports whether s contains at least one letter and no lower-case
// letters.
func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

// SplitTables splits each table (newline-delimited rows, first row treated
// as the header) into row windows of at most chunkSize rows advancing by
// chunkSize-overlapSize, with the header prepended to every window. A table
// whose row count fits within chunkSize is kept whole.
func SplitTables(tables []string, chunkSize, overlapSize int) []Chunk {
	var chunks []Chunk

	for _, table := range tables {
		rows := nonEmptyRows(table)
		if len(rows) == 0 {
			continue
		}

		header := rows[0]
		content := rows[1:]

		if len(content) <= chunkSize {
			chunks = append(chunks, Chunk{
				Text: table,
				Meta: Metadata{Type: TypeTable, Header: header, RowCount: len(content)},
			})
			continue
		}

		step := chunkSize - overlapSize
		if step <= 0 {
			step = 1
		}
		for i := 0; i < len(content); i += step {
			end := i + chunkSize
			if end > len(content) {
				end = len(content)
			}
			window := content[i:end]
			text := strings.Join(append([]string{header}, window...), "\n")
			chunks = append(chunks, Chunk{
				Text: text,
				Meta: Metadata{
					Type:     TypeTable,
					Header:   header,
					StartRow: i + 1, // 1-based, header excluded
					RowCount: len(window),
				},
			})
		}
	}

	return chunks
}

func nonEmptyRows(table string) []string {
	var rows []string
	for _, row := range strings.Split(table, "\n") {
		if strings.TrimSpace(row) != "" {
			rows = append(rows, row)
		}
	}
	return rows
}
