// Package pauldb is the host-facing programmatic surface of PaulDB: an
// embeddable relational database a host process links against and
// drives through a schema and query API. Everything under internal/ is
// the hard core — typed storage, B-tree indexes, the catalog, and the
// query execution engine; this package is the thin Open/Model/Query
// front door onto it.
package pauldb

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"pauldb/internal/catalog"
	"pauldb/internal/plan"
	"pauldb/internal/record"
	"pauldb/internal/row"
	"pauldb/internal/schema"
	"pauldb/internal/seq"
	"pauldb/internal/storage"
	"pauldb/internal/table"
)

// DB owns one open database: its page medium, its catalog, and the
// logger injected into every table handle it resolves.
type DB struct {
	pager      *storage.Pager
	closer     interface{ Close() error }
	cat        *catalog.Catalog
	indexOrder int
	log        *logrus.Logger
	closed     bool
}

func open(pager *storage.Pager, closer interface{ Close() error }, opts OpenOptions) (*DB, error) {
	log := opts.resolveLogger()
	cat, err := catalog.Open(pager, log)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &DB{pager: pager, closer: closer, cat: cat, indexOrder: opts.PageOrder, log: log}, nil
}

// InMemory opens a database backed entirely by process memory: no
// handle to release, nothing persisted across process restarts.
func InMemory(opts OpenOptions) (*DB, error) {
	return open(storage.OpenMemory(), nil, opts)
}

// OpenFile opens (creating if opts.Create) the paged file-backed engine
// rooted at dir/db.
func OpenFile(dir string, opts OpenOptions) (*DB, error) {
	pager, medium, err := storage.OpenFile(dir, opts.Create)
	if err != nil {
		return nil, err
	}
	return open(pager, medium, opts)
}

// OpenLocalKV opens the backend named by the host-facing local_kv()
// entry point. A Go host has no browser local-storage medium; this
// backs onto the same paged file engine under a distinguishing name.
func OpenLocalKV(dir, prefix string, opts OpenOptions) (*DB, error) {
	pager, medium, err := storage.OpenLocalKV(dir, prefix)
	if err != nil {
		return nil, err
	}
	return open(pager, medium, opts)
}

// OpenIndexed opens the backend named by the host-facing indexed()
// entry point. See OpenLocalKV.
func OpenIndexed(dir, name string, opts OpenOptions) (*DB, error) {
	pager, medium, err := storage.OpenIndexed(dir, name)
	if err != nil {
		return nil, err
	}
	return open(pager, medium, opts)
}

// Shutdown releases the file handle (if any) and marks db closed; every
// handle and model obtained from db fails after this returns.
func (db *DB) Shutdown() error {
	if db.closed {
		return nil
	}
	db.closed = true
	db.cat.Close()
	if db.closer != nil {
		return db.closer.Close()
	}
	return nil
}

func (db *DB) checkOpen() error {
	if db.closed {
		return ErrClosed
	}
	return nil
}

// Tables lists every live user table the catalog currently knows
// about, for introspection tooling (the CLI's "open" command).
func (db *DB) Tables() []catalog.TableMeta {
	return db.cat.Tables()
}

// Schema is the set of table schemas a Model resolves, keyed by table
// name — the argument to get_model.
type Schema map[string]*schema.Table

// Model is a resolved view of a database: a handle per table plus the
// query/subscribe surface.
type Model struct {
	db     *DB
	dbName string
	Tables map[string]*table.Handle
}

// Model resolves (creating lazily as needed) every table named in sch
// against dbName, returning a Model whose Tables map callers index by
// table name.
func (db *DB) Model(dbName string, sch Schema) (*Model, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	tables := make(map[string]*table.Handle, len(sch))
	for name, tblSchema := range sch {
		meta, err := db.cat.Resolve(dbName, name, tblSchema, true)
		if err != nil {
			return nil, wrapErr(err)
		}
		h, err := table.Open(db.cat, meta, tblSchema, db.indexOrder, db.log)
		if err != nil {
			return nil, wrapErr(err)
		}
		tables[name] = h
	}
	return &Model{db: db, dbName: dbName, Tables: tables}, nil
}

// Migration describes a schema change for one table of a Model: the new
// schema and the row-by-row transform from the old shape.
type Migration struct {
	Name      string
	NewSchema *schema.Table
	Transform func(schema.Record) (schema.Record, error)
}

// Migrate runs mig against tableName's currently-resolved handle: it
// reads every old row through mig.Transform, tombstones the old
// table-id, creates a fresh table-id under mig.NewSchema, inserts the
// transformed rows into it, and replaces tableName's entry in the
// Model's Tables map with the new handle. Any other handle still
// referencing the old table-id fails with catalog.ErrDropped on its
// next access.
func (m *Model) Migrate(tableName string, mig Migration) (*table.Handle, error) {
	old, ok := m.Tables[tableName]
	if !ok {
		return nil, &TableNotFoundError{Cause: fmt.Errorf("pauldb: model has no table %q", tableName)}
	}
	meta, err := m.db.cat.Resolve(m.dbName, tableName, old.Schema(), false)
	if err != nil {
		return nil, wrapErr(err)
	}
	oldCodec, err := record.NewCodec(old.Schema())
	if err != nil {
		return nil, fmt.Errorf("pauldb: migrating %q: %w", tableName, err)
	}

	var newHandle *table.Handle
	_, err = m.db.cat.Migrate(meta, catalog.Migration{
		Name:      mig.Name,
		NewSchema: mig.NewSchema,
		Transform: mig.Transform,
	}, oldCodec, func(rec schema.Record) error {
		if newHandle == nil {
			newMeta, rerr := m.db.cat.Resolve(m.dbName, tableName, mig.NewSchema, true)
			if rerr != nil {
				return rerr
			}
			h, rerr := table.Open(m.db.cat, newMeta, mig.NewSchema, m.db.indexOrder, m.db.log)
			if rerr != nil {
				return rerr
			}
			newHandle = h
		}
		_, ierr := newHandle.Insert(context.Background(), rec)
		return ierr
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	if newHandle == nil {
		// The old table had no rows: the new table still needs to be
		// resolved/created even though insertNew was never called.
		newMeta, rerr := m.db.cat.Resolve(m.dbName, tableName, mig.NewSchema, true)
		if rerr != nil {
			return nil, wrapErr(rerr)
		}
		h, rerr := table.Open(m.db.cat, newMeta, mig.NewSchema, m.db.indexOrder, m.db.log)
		if rerr != nil {
			return nil, wrapErr(rerr)
		}
		newHandle = h
	}
	m.Tables[tableName] = newHandle
	return newHandle, nil
}

// Query executes node and returns its results as a lazy sequence. When
// the outermost row wraps a single "$0" alias (the default
// Select/Aggregate/GroupBy wrapping), the wrapper is unwrapped
// transparently, so the caller sees bare schema.Record values instead
// of a one-key multi-table row.
func (m *Model) Query(ctx context.Context, node plan.Node) (seq.Seq[any], error) {
	if err := m.db.checkOpen(); err != nil {
		return nil, err
	}
	out, err := node.Execute(ctx)
	if err != nil {
		return nil, wrapErr(err)
	}
	return seq.Map(out, func(_ context.Context, r row.Row) (any, error) {
		if rec, ok := r[plan.DefaultAlias]; ok && len(r) == 1 {
			return rec, nil
		}
		return r, nil
	}), nil
}

// Subscribe registers handler to be re-invoked with node's full result
// set every time any table node transitively scans is committed to.
// There is currently no way to unregister a subscription once added —
// table.Handle.Subscribe itself offers no removal hook.
func (m *Model) Subscribe(ctx context.Context, node plan.Node, handler func([]any, error)) {
	for _, h := range scannedHandles(node) {
		h.Subscribe(func() {
			out, err := m.Query(ctx, node)
			if err != nil {
				handler(nil, err)
				return
			}
			results, err := seq.ToSlice(ctx, out)
			handler(results, err)
		})
	}
}

// scannedHandles walks node's plan tree and collects every distinct
// Table Handle a TableScan leaf reads from, used by Subscribe to wire
// re-execution to every input table a plan transitively depends on.
func scannedHandles(node plan.Node) []*table.Handle {
	seen := make(map[*table.Handle]bool)
	var out []*table.Handle
	var walk func(plan.Node)
	walk = func(n plan.Node) {
		if ts, ok := n.(*plan.TableScan); ok {
			if !seen[ts.Handle] {
				seen[ts.Handle] = true
				out = append(out, ts.Handle)
			}
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(node)
	return out
}
