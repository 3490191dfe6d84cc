// Package couch implements the storage contracts against a remote CouchDB
// database through kivik. It is the secondary store in dual mode and the
// authoritative store in couch mode. Documents carry a record_type
// discriminator and a namespace field so several deployments can share one
// database; doc ids are "<namespace>:<record_type>:<key>".
package couch

import (
	"context"
	"fmt"

	"github.com/go-kivik/kivik/v4"
	"github.com/rs/zerolog"
)

const (
	recordTypeEntry    = "entry"
	recordTypeBottle   = "bottle"
	recordTypeGoal     = "goal"
	recordTypeEvent    = "calendar_event"
	recordTypeReminder = "reminder"
	recordTypeSettings = "settings"
	recordTypeMeta     = "meta"
)

type Store struct {
	db        *kivik.DB
	namespace string
	counters  *Counters
	log       zerolog.Logger
}

func New(client *kivik.Client, dbName, namespace string, log zerolog.Logger) *Store {
	s := &Store{
		db:        client.DB(dbName),
		namespace: namespace,
		log:       log.With().Str("component", "couch-store").Logger(),
	}
	s.counters = newCounters(s, s.log)
	return s
}

// Close is a no-op: the kivik client is owned by the caller.
func (s *Store) Close() error {
	return nil
}

func (s *Store) docID(recordType, key string) string {
	if s.namespace != "" {
		return fmt.Sprintf("%s:%s:%s", s.namespace, recordType, key)
	}
	return fmt.Sprintf("%s:%s", recordType, key)
}

// selector returns the base Mango selector for one record type within this
// namespace; callers add equality constraints on top.
func (s *Store) selector(recordType string) map[string]interface{} {
	return map[string]interface{}{
		"record_type": recordType,
		"namespace":   s.namespace,
	}
}

// findPageSize is the Mango page size, not a result cap; findDocs keeps
// paging until a short page.
const findPageSize = 1000

// docRows is the iteration surface of a kivik result set.
type docRows interface {
	Next() bool
	ScanDoc(dest interface{}) error
	Err() error
	Close() error
}

type findFunc func(ctx context.Context, query map[string]interface{}) docRows

func (s *Store) find(ctx context.Context, query map[string]interface{}) docRows {
	return s.db.Find(ctx, query)
}

// findDocs fetches every document matching selector, paging with limit+skip.
// A document that fails to decode fails the whole listing; skipping it would
// make corrupt records silently vanish from results, including the sync pull.
func findDocs[D any](ctx context.Context, find findFunc, selector map[string]interface{}) ([]D, error) {
	var docs []D
	skip := 0
	for {
		page, err := scanDocs[D](find(ctx, map[string]interface{}{
			"selector": selector,
			"limit":    findPageSize,
			"skip":     skip,
		}))
		if err != nil {
			return nil, err
		}
		docs = append(docs, page...)
		if len(page) < findPageSize {
			return docs, nil
		}
		skip += findPageSize
	}
}

func scanDocs[D any](rows docRows) ([]D, error) {
	defer rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var docs []D
	for rows.Next() {
		var doc D
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
