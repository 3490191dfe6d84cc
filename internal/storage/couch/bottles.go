package couch

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"
	"babylog-sync-server/pkg/timeutil"

	"github.com/go-kivik/kivik/v4"
)

type bottleDoc struct {
	DocID        string  `json:"_id,omitempty"`
	Rev          string  `json:"_rev,omitempty"`
	RecordType   string  `json:"record_type"`
	Namespace    string  `json:"namespace"`
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	EmptyWeightG float64 `json:"empty_weight_g"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	DeletedAt    *string `json:"deleted_at"`
}

func (s *Store) bottleToDoc(bottle *domain.Bottle) *bottleDoc {
	return &bottleDoc{
		DocID:        s.docID(recordTypeBottle, strconv.FormatInt(bottle.ID, 10)),
		RecordType:   recordTypeBottle,
		Namespace:    s.namespace,
		ID:           bottle.ID,
		Name:         bottle.Name,
		EmptyWeightG: bottle.EmptyWeightG,
		CreatedAt:    timeutil.Format(bottle.CreatedAt),
		UpdatedAt:    timeutil.Format(bottle.UpdatedAt),
		DeletedAt:    timeutil.FormatPtr(bottle.DeletedAt),
	}
}

func (d *bottleDoc) toDomain() (*domain.Bottle, error) {
	bottle := &domain.Bottle{
		ID:           d.ID,
		Name:         d.Name,
		EmptyWeightG: d.EmptyWeightG,
	}
	var err error
	if bottle.CreatedAt, err = timeutil.ParseStored(d.CreatedAt); err != nil {
		return nil, err
	}
	if bottle.UpdatedAt, err = timeutil.ParseStored(d.UpdatedAt); err != nil {
		return nil, err
	}
	if d.DeletedAt != nil {
		t, err := timeutil.ParseStored(*d.DeletedAt)
		if err != nil {
			return nil, err
		}
		bottle.DeletedAt = &t
	}
	return bottle, nil
}

func (s *Store) CreateBottle(ctx context.Context, bottle *domain.Bottle) (*domain.Bottle, error) {
	if bottle.ID == 0 {
		id, err := s.counters.NextID(ctx, CounterBottle)
		if err != nil {
			return nil, err
		}
		bottle.ID = id
	}
	doc := s.bottleToDoc(bottle)
	if _, err := s.db.Put(ctx, doc.DocID, doc); err != nil {
		return nil, fmt.Errorf("failed to create bottle: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) getBottleDoc(ctx context.Context, id int64) (*bottleDoc, error) {
	var doc bottleDoc
	row := s.db.Get(ctx, s.docID(recordTypeBottle, strconv.FormatInt(id, 10)))
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bottle: %w", err)
	}
	return &doc, nil
}

func (s *Store) GetBottle(ctx context.Context, id int64) (*domain.Bottle, error) {
	doc, err := s.getBottleDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (s *Store) ListBottles(ctx context.Context, includeDeleted bool) ([]*domain.Bottle, error) {
	raw, err := findDocs[bottleDoc](ctx, s.find, s.selector(recordTypeBottle))
	if err != nil {
		return nil, fmt.Errorf("failed to list bottles: %w", err)
	}
	docs := []*bottleDoc{}
	for i := range raw {
		if !includeDeleted && raw[i].DeletedAt != nil {
			continue
		}
		docs = append(docs, &raw[i])
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].UpdatedAt != docs[j].UpdatedAt {
			return docs[i].UpdatedAt > docs[j].UpdatedAt
		}
		return docs[i].ID > docs[j].ID
	})
	bottles := make([]*domain.Bottle, 0, len(docs))
	for _, doc := range docs {
		bottle, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		bottles = append(bottles, bottle)
	}
	return bottles, nil
}

func (s *Store) UpdateBottle(ctx context.Context, id int64, patch domain.BottlePatch) (*domain.Bottle, error) {
	doc, err := s.getBottleDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name.Set {
		doc.Name = patch.Name.Value
	}
	if patch.EmptyWeightG.Set {
		doc.EmptyWeightG = patch.EmptyWeightG.Value
	}
	if patch.UpdatedAt.Set {
		doc.UpdatedAt = timeutil.Format(patch.UpdatedAt.Value)
	}
	if _, err := s.db.Put(ctx, doc.DocID, doc); err != nil {
		return nil, fmt.Errorf("failed to update bottle: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) SoftDeleteBottle(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	doc, err := s.getBottleDoc(ctx, id)
	if err != nil {
		if err == storage.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	if doc.DeletedAt != nil {
		return false, nil
	}
	deleted := timeutil.Format(deletedAt)
	doc.DeletedAt = &deleted
	doc.UpdatedAt = timeutil.Format(updatedAt)
	if _, err := s.db.Put(ctx, doc.DocID, doc); err != nil {
		return false, fmt.Errorf("failed to soft-delete bottle: %w", err)
	}
	return true, nil
}
