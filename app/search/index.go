// Package search keeps a bleve full-text index of published posts. Title
// matches weigh more than body matches, and every query term has to occur
// somewhere in the post.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"blog/app/models"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Field weights, matching the A and B weights of a PostgreSQL tsvector.
const (
	TitleWeight = 1.0
	BodyWeight  = 0.4
)

// document is what gets indexed for a post. Content holds title and body
// together so a multi-word query can be required to match in full.
type document struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Content string `json:"content"`
}

// Index is a bleve-backed search index.
type Index struct {
	idx bleve.Index
}

func buildMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = en.AnalyzerName
	text.Store = false
	text.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("body", text)
	doc.AddFieldMappingsAt("content", text)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = en.AnalyzerName
	return m
}

// NewMemIndex creates an empty in-memory index.
func NewMemIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// Open opens the index at path, creating it if it does not exist. An
// empty path gives an in-memory index.
func Open(path string) (*Index, error) {
	if path == "" {
		return NewMemIndex()
	}
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open search index %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

// Exists reports whether an on-disk index is present at path. An empty
// path is an in-memory index, which never exists beforehand.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Reset deletes an on-disk index so it can be rebuilt from scratch.
func Reset(path string) error {
	if path == "" {
		return nil
	}
	return os.RemoveAll(path)
}

// Index adds or refreshes a post. Posts that are not published are
// removed instead, so drafts can never be found.
func (i *Index) Index(ctx context.Context, post *models.Post) error {
	id := strconv.Itoa(post.ID)
	if !post.IsPublished() {
		return i.idx.Delete(id)
	}
	return i.idx.Index(id, document{
		Title:   post.Title,
		Body:    post.Body,
		Content: post.Title + "\n" + post.Body,
	})
}

// Remove drops a post from the index.
func (i *Index) Remove(ctx context.Context, id int) error {
	return i.idx.Delete(strconv.Itoa(id))
}

// Search returns matching post IDs, best match first. A limit of zero or
// less returns every match.
func (i *Index) Search(ctx context.Context, q string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		count, err := i.idx.DocCount()
		if err != nil {
			return nil, err
		}
		limit = int(count)
		if limit == 0 {
			return nil, nil
		}
	}

	all := bleve.NewMatchQuery(q)
	all.SetField("content")
	all.SetOperator(query.MatchQueryOperatorAnd)
	all.SetBoost(0.1)

	title := bleve.NewMatchQuery(q)
	title.SetField("title")
	title.SetBoost(TitleWeight)

	body := bleve.NewMatchQuery(q)
	body.SetField("body")
	body.SetBoost(BodyWeight)

	bq := bleve.NewBooleanQuery()
	bq.AddMust(all)
	bq.AddShould(title, body)

	req := bleve.NewSearchRequestOptions(bq, limit, 0, false)
	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]models.SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		hits = append(hits, models.SearchHit{PostID: id, Rank: h.Score})
	}
	return hits, nil
}

// Count returns the number of indexed posts.
func (i *Index) Count() (uint64, error) {
	return i.idx.DocCount()
}

func (i *Index) Close() error {
	return i.idx.Close()
}
