package couch

import (
	"context"
	"errors"
	"testing"
)

type fakeDoc struct {
	ID int64 `json:"id"`
}

type fakeRows struct {
	docs    []fakeDoc
	idx     int
	scanErr error
	iterErr error
	closed  bool
}

func (r *fakeRows) Next() bool {
	if r.iterErr != nil {
		return false
	}
	if r.idx >= len(r.docs) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) ScanDoc(dest interface{}) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	*dest.(*fakeDoc) = r.docs[r.idx-1]
	return nil
}

func (r *fakeRows) Err() error { return r.iterErr }

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}

// pagedFind serves canned pages and records the skip offset of every query.
type pagedFind struct {
	pages []*fakeRows
	skips []int
	calls int
}

func (f *pagedFind) find(ctx context.Context, query map[string]interface{}) docRows {
	f.skips = append(f.skips, query["skip"].(int))
	rows := f.pages[f.calls]
	f.calls++
	return rows
}

func makeDocs(n int, first int64) []fakeDoc {
	docs := make([]fakeDoc, n)
	for i := range docs {
		docs[i] = fakeDoc{ID: first + int64(i)}
	}
	return docs
}

func TestFindDocsPagesPastTheMangoLimit(t *testing.T) {
	full := &fakeRows{docs: makeDocs(findPageSize, 1)}
	short := &fakeRows{docs: makeDocs(2, findPageSize+1)}
	finder := &pagedFind{pages: []*fakeRows{full, short}}

	docs, err := findDocs[fakeDoc](context.Background(), finder.find, map[string]interface{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != findPageSize+2 {
		t.Fatalf("expected %d docs across pages, got %d", findPageSize+2, len(docs))
	}
	if docs[len(docs)-1].ID != int64(findPageSize+2) {
		t.Errorf("expected last id %d, got %d", findPageSize+2, docs[len(docs)-1].ID)
	}
	if len(finder.skips) != 2 || finder.skips[0] != 0 || finder.skips[1] != findPageSize {
		t.Errorf("expected skip offsets [0 %d], got %v", findPageSize, finder.skips)
	}
	if !full.closed || !short.closed {
		t.Error("expected every page's rows to be closed")
	}
}

func TestFindDocsStopsOnShortFirstPage(t *testing.T) {
	finder := &pagedFind{pages: []*fakeRows{{docs: makeDocs(3, 1)}}}
	docs, err := findDocs[fakeDoc](context.Background(), finder.find, map[string]interface{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(docs))
	}
	if finder.calls != 1 {
		t.Errorf("expected a single query, got %d", finder.calls)
	}
}

func TestFindDocsSurfacesScanErrors(t *testing.T) {
	scanErr := errors.New("json: cannot unmarshal")
	rows := &fakeRows{docs: makeDocs(2, 1), scanErr: scanErr}
	finder := &pagedFind{pages: []*fakeRows{rows}}

	if _, err := findDocs[fakeDoc](context.Background(), finder.find, map[string]interface{}{}); !errors.Is(err, scanErr) {
		t.Fatalf("expected a corrupt document to fail the listing, got %v", err)
	}
	if !rows.closed {
		t.Error("expected rows to be closed after a scan failure")
	}
}

func TestFindDocsSurfacesIterationErrors(t *testing.T) {
	iterErr := errors.New("connection reset")
	finder := &pagedFind{pages: []*fakeRows{{iterErr: iterErr}}}

	if _, err := findDocs[fakeDoc](context.Background(), finder.find, map[string]interface{}{}); !errors.Is(err, iterErr) {
		t.Fatalf("expected the query error to surface, got %v", err)
	}
}
