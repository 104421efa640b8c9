package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/khanglvm/recordbook/internal/store"
)

// Indexer holds the search index.
type Indexer struct {
	bleveIndex bleve.Index
	mu         sync.RWMutex
}

// NewIndexer creates an empty in-memory index.
func NewIndexer() (*Indexer, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return &Indexer{bleveIndex: index}, nil
}

// buildIndexMapping creates the Bleve index mapping.
func buildIndexMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	// Filter fields: exact match only, kept out of the _all field
	for _, name := range []string{"kind", "id", "studentId", "category"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.IncludeInAll = false
		doc.AddFieldMappingsAt(name, fm)
	}

	for _, name := range []string{"subCategory", "point", "memo", "content"} {
		doc.AddFieldMappingsAt(name, bleve.NewTextFieldMapping())
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", doc)
	return indexMapping
}

// Build replaces the index contents with a snapshot of st.
func (i *Indexer) Build(ctx context.Context, st *store.Store) error {
	records, err := st.ListRecords(ctx, "")
	if err != nil {
		return err
	}
	generated, err := st.ListGenerated(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create bleve index: %w", err)
	}

	batch := fresh.NewBatch()
	for _, r := range records {
		if err := batch.Index(docID(KindRecord, r.ID), recordDoc(r)); err != nil {
			fresh.Close()
			return fmt.Errorf("failed to index record %s: %w", r.ID, err)
		}
	}
	for _, g := range generated {
		if err := batch.Index(docID(KindGenerated, g.ID), generatedDoc(g)); err != nil {
			fresh.Close()
			return fmt.Errorf("failed to index generated %s: %w", g.ID, err)
		}
	}
	if err := fresh.Batch(batch); err != nil {
		fresh.Close()
		return fmt.Errorf("failed to batch index: %w", err)
	}

	i.mu.Lock()
	old := i.bleveIndex
	i.bleveIndex = fresh
	i.mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

// IndexRecord adds or replaces one record.
func (i *Indexer) IndexRecord(r store.ObservationRecord) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bleveIndex.Index(docID(KindRecord, r.ID), recordDoc(r))
}

// IndexGenerated adds generated entries.
func (i *Indexer) IndexGenerated(items ...store.GeneratedContent) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleveIndex.NewBatch()
	for _, g := range items {
		if err := batch.Index(docID(KindGenerated, g.ID), generatedDoc(g)); err != nil {
			return fmt.Errorf("failed to index generated %s: %w", g.ID, err)
		}
	}
	return i.bleveIndex.Batch(batch)
}

// Count returns the number of indexed documents.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	docCount, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}
	return docCount, nil
}

// Close closes the index and releases resources.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bleveIndex != nil {
		return i.bleveIndex.Close()
	}
	return nil
}

func docID(kind, id string) string {
	return kind + "/" + id
}

func recordDoc(r store.ObservationRecord) map[string]interface{} {
	return map[string]interface{}{
		"kind":        KindRecord,
		"id":          r.ID,
		"studentId":   r.StudentID,
		"category":    r.Category,
		"subCategory": r.SubCategory,
		"point":       r.Point,
		"memo":        r.Memo,
	}
}

func generatedDoc(g store.GeneratedContent) map[string]interface{} {
	return map[string]interface{}{
		"kind":      KindGenerated,
		"id":        g.ID,
		"studentId": g.StudentID,
		"category":  g.Category,
		"content":   g.Content,
	}
}
