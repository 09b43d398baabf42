package vec

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"modernc.org/sqlite/vtab"

	"github.com/viant/xtree/catalog"
)

// ModuleName is the virtual table module registered by Register.
const ModuleName = "knn"

// DefaultK is the neighbour count used when a query has no k constraint.
const DefaultK = 10

const (
	idxMatch = iota + 1
	idxMatchK
)

// Querier answers kNN queries with ids and squared distances, nearest first.
type Querier interface {
	Query(query []float32, k int) ([]string, []float64, error)
}

var bindings sync.Map // name -> Querier

// Bind makes idx available to tables created USING knn(name), replacing any
// previous binding.
func Bind(name string, idx Querier) { bindings.Store(name, idx) }

// Unbind removes the binding for name.
func Unbind(name string) { bindings.Delete(name) }

func lookup(name string) (Querier, error) {
	v, ok := bindings.Load(name)
	if !ok {
		return nil, fmt.Errorf("vec: no index bound as %q", name)
	}
	return v.(Querier), nil
}

// Module implements vtab.Module for the knn virtual table.
type Module struct{}

// Table is a knn virtual table attached to a bound index.
type Table struct {
	tableName string
	source    string
}

type row struct {
	id       string
	distance float64
}

// Cursor iterates the neighbours of one query.
type Cursor struct {
	table *Table
	rows  []row
	pos   int
}

// Register registers the knn module with the provided *sql.DB. Call it before
// the first statement on db.
func Register(db *sql.DB) error {
	if err := vtab.RegisterModule(db, ModuleName, &Module{}); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	return nil
}

// Create declares the table schema. The first module argument names the bound index.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

// Connect attaches to an existing knn table.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 4 {
		return nil, fmt.Errorf("vec: USING %s(<index>) expects an index name", ModuleName)
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("vec: EnableConstraintSupport failed: %w", err)
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(id TEXT, distance REAL, k INTEGER HIDDEN)", args[2])); err != nil {
		return nil, err
	}
	return &Table{tableName: args[2], source: strings.Trim(strings.TrimSpace(args[3]), `'"`)}, nil
}

// BestIndex pushes down MATCH on id and equality on k.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	var matchConstraint, kConstraint *vtab.Constraint
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		switch {
		case c.Column == 0 && c.Op == vtab.OpMATCH:
			matchConstraint = c
		case c.Column == 2 && c.Op == vtab.OpEQ:
			kConstraint = c
		}
	}
	if matchConstraint == nil {
		return fmt.Errorf("vec: %s requires id MATCH <vector>", t.tableName)
	}
	matchConstraint.ArgIndex = 0
	matchConstraint.Omit = true
	info.IdxNum = idxMatch
	if kConstraint != nil {
		kConstraint.ArgIndex = 1
		kConstraint.Omit = true
		info.IdxNum = idxMatchK
	}
	return nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect is a no-op; bindings outlive connections.
func (t *Table) Disconnect() error { return nil }

// Destroy is a no-op; the bound index is owned by the caller.
func (t *Table) Destroy() error { return nil }

// Filter runs the kNN query.
func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows, c.pos = nil, 0
	if len(vals) == 0 || vals[0] == nil {
		return fmt.Errorf("vec: MATCH argument is required")
	}
	query, err := decodeMatchArg(vals[0])
	if err != nil {
		return err
	}
	k := DefaultK
	if idxNum == idxMatchK {
		if len(vals) < 2 {
			return fmt.Errorf("vec: missing k argument")
		}
		if k, err = asInt(vals[1]); err != nil {
			return err
		}
	}
	idx, err := lookup(c.table.source)
	if err != nil {
		return err
	}
	ids, dists, err := idx.Query(query, k)
	if err != nil {
		return fmt.Errorf("vec: %w", err)
	}
	c.rows = make([]row, len(ids))
	for i := range ids {
		c.rows[i] = row{id: ids[i], distance: dists[i]}
	}
	return nil
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos >= len(c.rows) {
		return nil, fmt.Errorf("vec: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	switch col {
	case 0:
		return c.rows[c.pos].id, nil
	case 1:
		return c.rows[c.pos].distance, nil
	case 2:
		return int64(len(c.rows)), nil
	}
	return nil, fmt.Errorf("vec: unsupported column %d", col)
}

// Rowid returns the neighbour rank, starting at 1.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos >= len(c.rows) {
		return 0, fmt.Errorf("vec: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return int64(c.pos + 1), nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }

func decodeMatchArg(v vtab.Value) ([]float32, error) {
	switch val := v.(type) {
	case []byte:
		return catalog.DecodeVector(val)
	case string:
		return decodeMatchString(val)
	default:
		return nil, fmt.Errorf("vec: expected MATCH arg as BLOB or string, got %T", v)
	}
}

func decodeMatchString(raw string) ([]float32, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("vec: MATCH string is empty")
	}
	if strings.HasPrefix(s, "[") {
		var floats []float32
		if err := json.Unmarshal([]byte(s), &floats); err != nil {
			return nil, fmt.Errorf("vec: invalid MATCH array: %w", err)
		}
		return floats, nil
	}
	parts := strings.Split(s, ",")
	vec := make([]float32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return nil, fmt.Errorf("vec: invalid MATCH float %q: %w", p, err)
		}
		vec = append(vec, float32(f))
	}
	return vec, nil
}

func asInt(v vtab.Value) (int, error) {
	switch val := v.(type) {
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("vec: cannot parse k %q: %w", val, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("vec: unsupported k type %T", v)
	}
}
