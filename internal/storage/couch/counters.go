package couch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-kivik/kivik/v4"
	"github.com/rs/zerolog"
)

// Counter names, one per entity kind the document store assigns ids for.
const (
	CounterEntry    = "entry_id"
	CounterBottle   = "bottle_id"
	CounterGoal     = "goal_id"
	CounterEvent    = "calendar_event_id"
	CounterReminder = "reminder_id"
)

// counterDocs is the read-modify-write surface NextID runs against. *Store
// backs it with the shared counters document in CouchDB; a conflicting write
// must fail the put with a 409-status error.
type counterDocs interface {
	getCounters(ctx context.Context) (map[string]interface{}, error)
	putCounters(ctx context.Context, doc map[string]interface{}) error
}

// Counters synthesizes sequential integer ids, since the document store has no
// native autoincrement. All names live in one shared counters document; the
// increment is a read-modify-write that leans on CouchDB's MVCC: a concurrent
// writer makes the put fail with 409 and the whole read-modify-write is
// retried. Values are strictly increasing per name; gaps are acceptable,
// duplicates are not.
type Counters struct {
	docs counterDocs
	log  zerolog.Logger
}

func newCounters(docs counterDocs, log zerolog.Logger) *Counters {
	return &Counters{docs: docs, log: log}
}

// NextID allocates the next value for name. Conflicts retry transparently and
// are never surfaced to callers.
func (c *Counters) NextID(ctx context.Context, name string) (int64, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		next, err := c.tryIncrement(ctx, name)
		if err == nil {
			return next, nil
		}
		if kivik.HTTPStatus(err) != http.StatusConflict {
			return 0, fmt.Errorf("failed to increment counter %q: %w", name, err)
		}
		c.log.Debug().Str("counter", name).Msg("counter conflict, retrying")
	}
}

func (c *Counters) tryIncrement(ctx context.Context, name string) (int64, error) {
	doc, err := c.docs.getCounters(ctx)
	if err != nil {
		return 0, err
	}

	current := int64(0)
	if raw, ok := doc[name]; ok {
		switch v := raw.(type) {
		case float64:
			current = int64(v)
		case int64:
			current = v
		}
	}
	next := current + 1
	doc[name] = next

	if err := c.docs.putCounters(ctx, doc); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Store) getCounters(ctx context.Context) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	row := s.db.Get(ctx, s.docID(recordTypeMeta, "counters"))
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) != http.StatusNotFound {
			return nil, err
		}
		doc = map[string]interface{}{
			"record_type": recordTypeMeta,
			"namespace":   s.namespace,
		}
	}
	return doc, nil
}

func (s *Store) putCounters(ctx context.Context, doc map[string]interface{}) error {
	_, err := s.db.Put(ctx, s.docID(recordTypeMeta, "counters"), doc)
	return err
}
