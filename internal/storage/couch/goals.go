package couch

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"
	"babylog-sync-server/pkg/timeutil"

	"github.com/go-kivik/kivik/v4"
)

type goalDoc struct {
	DocID      string  `json:"_id,omitempty"`
	Rev        string  `json:"_rev,omitempty"`
	RecordType string  `json:"record_type"`
	Namespace  string  `json:"namespace"`
	ID         int64   `json:"id"`
	TargetML   float64 `json:"target_ml"`
	StartDate  string  `json:"start_date"`
	CreatedAt  string  `json:"created_at"`
}

func (s *Store) goalToDoc(goal *domain.FeedingGoal) *goalDoc {
	return &goalDoc{
		DocID:      s.docID(recordTypeGoal, strconv.FormatInt(goal.ID, 10)),
		RecordType: recordTypeGoal,
		Namespace:  s.namespace,
		ID:         goal.ID,
		TargetML:   goal.TargetML,
		StartDate:  goal.StartDate,
		CreatedAt:  timeutil.Format(goal.CreatedAt),
	}
}

func (d *goalDoc) toDomain() (*domain.FeedingGoal, error) {
	created, err := timeutil.ParseStored(d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.FeedingGoal{
		ID:        d.ID,
		TargetML:  d.TargetML,
		StartDate: d.StartDate,
		CreatedAt: created,
	}, nil
}

func (s *Store) CreateGoal(ctx context.Context, goal *domain.FeedingGoal) (*domain.FeedingGoal, error) {
	if goal.ID == 0 {
		id, err := s.counters.NextID(ctx, CounterGoal)
		if err != nil {
			return nil, err
		}
		goal.ID = id
	}
	doc := s.goalToDoc(goal)
	if _, err := s.db.Put(ctx, doc.DocID, doc); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) getGoalDoc(ctx context.Context, id int64) (*goalDoc, error) {
	var doc goalDoc
	row := s.db.Get(ctx, s.docID(recordTypeGoal, strconv.FormatInt(id, 10)))
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return &doc, nil
}

func (s *Store) GetGoal(ctx context.Context, id int64) (*domain.FeedingGoal, error) {
	doc, err := s.getGoalDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (s *Store) listGoalDocs(ctx context.Context) ([]*goalDoc, error) {
	raw, err := findDocs[goalDoc](ctx, s.find, s.selector(recordTypeGoal))
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	docs := make([]*goalDoc, len(raw))
	for i := range raw {
		docs[i] = &raw[i]
	}
	return docs, nil
}

func (s *Store) ListGoals(ctx context.Context, limit int) ([]*domain.FeedingGoal, error) {
	docs, err := s.listGoalDocs(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].StartDate != docs[j].StartDate {
			return docs[i].StartDate > docs[j].StartDate
		}
		return docs[i].CreatedAt > docs[j].CreatedAt
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	goals := make([]*domain.FeedingGoal, 0, len(docs))
	for _, doc := range docs {
		goal, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, nil
}

// CurrentGoal is the most recently created goal regardless of start date.
func (s *Store) CurrentGoal(ctx context.Context) (*domain.FeedingGoal, error) {
	docs, err := s.listGoalDocs(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, storage.ErrNotFound
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt != docs[j].CreatedAt {
			return docs[i].CreatedAt > docs[j].CreatedAt
		}
		return docs[i].ID > docs[j].ID
	})
	return docs[0].toDomain()
}

func (s *Store) UpdateGoal(ctx context.Context, id int64, patch domain.GoalPatch) (*domain.FeedingGoal, error) {
	doc, err := s.getGoalDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.TargetML.Set {
		doc.TargetML = patch.TargetML.Value
	}
	if patch.StartDate.Set {
		doc.StartDate = patch.StartDate.Value
	}
	if _, err := s.db.Put(ctx, doc.DocID, doc); err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) DeleteGoal(ctx context.Context, id int64) (bool, error) {
	doc, err := s.getGoalDoc(ctx, id)
	if err != nil {
		if err == storage.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	if _, err := s.db.Delete(ctx, doc.DocID, doc.Rev); err != nil {
		return false, fmt.Errorf("failed to delete goal: %w", err)
	}
	return true, nil
}
