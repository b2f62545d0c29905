// Package ingest turns parsed documents into embedded, deduplicated chunk
// points. Storage identity is the content hash of each chunk, so re-ingesting
// an unchanged document writes nothing.
package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/chunk"
	"github.com/vimo-cloud/ragstore/internal/domain"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters. For
	// tables it is interpreted as a row count.
	DefaultChunkSize = 1440
	// DefaultOverlapSize is how much consecutive chunks share.
	DefaultOverlapSize = 256
)

var (
	sectionHeadingRe = regexp.MustCompile(`^#\s*(.+)`)
	chunkHeadingRe   = regexp.MustCompile(`#\s*(.+)`)
)

// Document is a parsed file ready for chunking: free-text sections plus
// tables as newline-delimited rows with the header row first.
type Document struct {
	Source   string
	Sections []string
	Tables   []string
}

// Result summarizes one ingestion run.
type Result struct {
	Title    string `json:"title"`
	Chunks   int    `json:"chunks"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
}

// Service orchestrates chunking, embedding, and storage for documents.
type Service struct {
	collections CollectionProvisioner
	points      PointWriter
	embed       domain.BatchEmbedder
	logger      *zap.Logger

	dimension   int
	chunkSize   int
	overlapSize int

	chunkCounter *prometheus.CounterVec
}

// New creates an ingestion service writing dimension-sized embeddings.
func New(
	collections CollectionProvisioner,
	points PointWriter,
	embed domain.BatchEmbedder,
	dimension int,
	logger *zap.Logger,
) *Service {
	return &Service{
		collections: collections,
		points:      points,
		embed:       embed,
		logger:      logger,
		dimension:   dimension,
		chunkSize:   DefaultChunkSize,
		overlapSize: DefaultOverlapSize,
	}
}

// WithChunking overrides the chunk and overlap sizes.
func (s *Service) WithChunking(chunkSize, overlapSize int) *Service {
	if chunkSize > 0 {
		s.chunkSize = chunkSize
	}
	if overlapSize >= 0 {
		s.overlapSize = overlapSize
	}
	return s
}

// WithChunkCounter wires the ingestion metric, a counter vec with label
// "result" ("inserted"/"skipped").
func (s *Service) WithChunkCounter(c *prometheus.CounterVec) *Service {
	s.chunkCounter = c
	return s
}

// Ingest chunks a document and stores one embedded point per new chunk.
// Chunks whose content hash is already stored are skipped. Ingestion is
// chunk-at-a-time: a failure mid-document leaves previously committed chunks
// in place.
func (s *Service) Ingest(ctx context.Context, collection string, doc Document) (Result, error) {
	textChunks := chunk.SplitSections(doc.Sections, s.chunkSize, s.overlapSize)
	tableChunks := chunk.SplitTables(doc.Tables, s.chunkSize, s.overlapSize)

	res := Result{Chunks: len(textChunks) + len(tableChunks)}
	if res.Chunks == 0 {
		return res, nil
	}

	if _, err := s.collections.GetOrCreate(ctx, collection, s.dimension); err != nil {
		return res, fmt.Errorf("provision collection: %w", err)
	}

	docTitle := titleFromSections(doc.Sections)

	for _, group := range [][]chunk.Chunk{textChunks, tableChunks} {
		if err := s.ingestGroup(ctx, collection, group, docTitle, doc.Source, &res); err != nil {
			return res, err
		}
	}

	if s.chunkCounter != nil {
		s.chunkCounter.WithLabelValues("inserted").Add(float64(res.Inserted))
		s.chunkCounter.WithLabelValues("skipped").Add(float64(res.Skipped))
	}

	s.logger.Info("Document ingested",
		zap.String("collection", collection),
		zap.String("source", doc.Source),
		zap.Int("chunks", res.Chunks),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// ingestGroup embeds and stores the new chunks of one type. All chunks of a
// group share one title and are embedded in a single batch call.
func (s *Service) ingestGroup(
	ctx context.Context, collection string, chunks []chunk.Chunk, docTitle, source string, res *Result,
) error {
	if len(chunks) == 0 {
		return nil
	}

	title := docTitle
	if title == "" {
		title = titleFromChunks(chunks)
	}
	if title == "" {
		title = fmt.Sprintf("%s from %s", chunks[0].Meta.Type, source)
	}
	if res.Title == "" {
		res.Title = title
	}

	fresh := make([]chunk.Chunk, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		id := c.ID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		exists, err := s.points.Exists(ctx, collection, id)
		if err != nil {
			return fmt.Errorf("check chunk %s: %w", id, err)
		}
		if exists {
			res.Skipped++
			continue
		}
		fresh = append(fresh, c)
		ids = append(ids, id)
	}
	if len(fresh) == 0 {
		return nil
	}

	// The title is prepended so embeddings carry document context even for
	// chunks that never mention it.
	inputs := make([]string, len(fresh))
	for i, c := range fresh {
		inputs[i] = title + "\n" + c.Text
	}

	embedded, err := s.embed.BatchEmbed(ctx, inputs)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(embedded.Embeddings) != len(fresh) {
		return fmt.Errorf("embed chunks: got %d vectors for %d inputs", len(embedded.Embeddings), len(fresh))
	}

	for i, c := range fresh {
		point := domain.Point{
			ID:        ids[i],
			Embedding: embedded.Embeddings[i],
			Payload:   chunkPayload(c, title, source),
		}
		if err := s.points.Upsert(ctx, collection, point); err != nil {
			return fmt.Errorf("store chunk %s: %w", ids[i], err)
		}
		res.Inserted++
	}
	return nil
}

func chunkPayload(c chunk.Chunk, title, source string) map[string]any {
	payload := map[string]any{
		"content": c.Text,
		"type":    string(c.Meta.Type),
		"source":  source,
		"title":   title,
	}
	if c.Meta.Type == chunk.TypeTable {
		payload["header"] = c.Meta.Header
		payload["row_count"] = c.Meta.RowCount
		if c.Meta.StartRow > 0 {
			payload["start_row"] = c.Meta.StartRow
		}
	}
	return payload
}

// titleFromSections returns the first markdown heading opening a section.
func titleFromSections(sections []string) string {
	for _, section := range sections {
		if m := sectionHeadingRe.FindStringSubmatch(section); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// titleFromChunks returns the first markdown heading found anywhere in the
// chunk texts.
func titleFromChunks(chunks []chunk.Chunk) string {
	for _, c := range chunks {
		if m := chunkHeadingRe.FindStringSubmatch(c.Text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
