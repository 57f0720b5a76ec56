package registry

import (
	"fmt"
	"sort"
	"time"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/rickb777/date/v2/timespan"
)

const (
	table       = "fiber"
	indexID     = "id"
	indexParent = "parent"
	indexStatus = "status"
)

type Status string

const (
	// StatusRunning is a fiber still evaluating its effect.
	StatusRunning Status = "running"
	// StatusDraining is a fiber whose effect settled but whose supervised
	// children have not all terminated yet.
	StatusDraining Status = "draining"
)

// Record describes one live fiber.
type Record struct {
	ID        string
	Name      string
	Parent    string
	Status    Status
	StartedAt time.Time
}

// Span is how long the fiber has been alive at now.
func (r Record) Span(now time.Time) timespan.TimeSpan {
	return timespan.BetweenTimes(r.StartedAt, now)
}

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		table: {
			Name: table,
			Indexes: map[string]*memdb.IndexSchema{
				indexID: {
					Name:    indexID,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				indexParent: {
					Name:         indexParent,
					AllowMissing: true,
					Indexer:      &memdb.StringFieldIndex{Field: "Parent"},
				},
				indexStatus: {
					Name:    indexStatus,
					Indexer: &memdb.StringFieldIndex{Field: "Status"},
				},
			},
		},
	},
}

// Registry keeps the live fibers of a runtime in an in-memory database.
type Registry struct {
	db *memdb.MemDB
}

// New creates an empty registry.
func New() (*Registry, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("creating fiber registry: %w", err)
	}
	return &Registry{db: db}, nil
}

// Register inserts rec unless a fiber with the same ID is already present.
func (r *Registry) Register(rec Record) (inserted bool, err error) {
	txn := r.db.Txn(true)
	defer txn.Abort()

	old, err := txn.First(table, indexID, rec.ID)
	if err != nil {
		return false, err
	} else if old != nil {
		return false, nil
	}

	if err := txn.Insert(table, &rec); err != nil {
		return false, fmt.Errorf("registering fiber %s: %w", rec.ID, err)
	}
	txn.Commit()
	return true, nil
}

// SetStatus changes the status of a registered fiber. It reports false for unknown ids.
func (r *Registry) SetStatus(id string, status Status) (updated bool, err error) {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(table, indexID, id)
	if err != nil || raw == nil {
		return false, err
	}

	rec := *raw.(*Record)
	rec.Status = status
	if err := txn.Insert(table, &rec); err != nil {
		return false, fmt.Errorf("updating fiber %s: %w", id, err)
	}
	txn.Commit()
	return true, nil
}

// Remove deletes the fiber with id, reporting whether it was present.
func (r *Registry) Remove(id string) (deleted bool, err error) {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(table, indexID, id)
	if err != nil || raw == nil {
		return false, err
	}

	if err := txn.Delete(table, raw); err != nil {
		return false, fmt.Errorf("removing fiber %s: %w", id, err)
	}
	txn.Commit()
	return true, nil
}

// Get looks a fiber up by id.
func (r *Registry) Get(id string) (rec Record, ok bool, err error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(table, indexID, id)
	if err != nil || raw == nil {
		return Record{}, false, err
	}
	return *raw.(*Record), true, nil
}

// Live lists every registered fiber, oldest first.
func (r *Registry) Live() ([]Record, error) {
	return r.list(indexID)
}

// Children lists the fibers forked by parent, oldest first.
func (r *Registry) Children(parent string) ([]Record, error) {
	return r.list(indexParent, parent)
}

// ByStatus lists the fibers in status, oldest first.
func (r *Registry) ByStatus(status Status) ([]Record, error) {
	return r.list(indexStatus, string(status))
}

func (r *Registry) list(index string, args ...any) ([]Record, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(table, index, args...)
	if err != nil {
		return nil, err
	}

	var recs []Record
	for raw := it.Next(); raw != nil; raw = it.Next() {
		recs = append(recs, *raw.(*Record))
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].StartedAt.Before(recs[j].StartedAt)
	})
	return recs, nil
}
