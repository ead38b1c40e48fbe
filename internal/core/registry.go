package core

// registry.go holds the tables the API can serve. Tables register from init
// functions in internal/core/tables; once the server starts the registry is
// only read.

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// APIPrefix is the path under which each table's data endpoint is mounted.
const APIPrefix = "/api/tables/"

var (
	registryMu sync.RWMutex
	registry   = make(map[string]TableDefinition)
)

// Register validates def and makes it readable by key. Columns default to
// field spec order and DBColumn to the snake_case column name.
// Register panics on an invalid definition or a key registered twice.
func Register(def TableDefinition) {
	def, err := prepareDefinition(def)
	if err != nil {
		panic(err.Error())
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}
	registry[def.Info.Key] = def
}

// prepareDefinition fills derived fields and rejects definitions the query
// layer cannot serve.
func prepareDefinition(def TableDefinition) (TableDefinition, error) {
	key := def.Info.Key
	if strings.TrimSpace(key) == "" {
		return def, fmt.Errorf("table key is empty")
	}
	if len(def.FieldSpecs) == 0 {
		return def, fmt.Errorf("table %s: no field specs", key)
	}

	specs := make([]FieldSpec, len(def.FieldSpecs))
	byDBColumn := make(map[string]string, len(specs))
	for i, spec := range def.FieldSpecs {
		if spec.Name == "" {
			return def, fmt.Errorf("table %s: field %d has no name", key, i)
		}
		if spec.DBColumn == "" {
			spec.DBColumn = toDBColumnName(spec.Name)
		}
		if spec.Type == FieldEnum && len(spec.EnumValues) == 0 {
			return def, fmt.Errorf("table %s: enum column %s has no values", key, spec.Name)
		}
		if other, dup := byDBColumn[spec.DBColumn]; dup {
			return def, fmt.Errorf("table %s: columns %s and %s both read %s", key, other, spec.Name, spec.DBColumn)
		}
		byDBColumn[spec.DBColumn] = spec.Name
		specs[i] = spec
	}
	def.FieldSpecs = specs

	if len(def.Info.Columns) == 0 {
		def.Info.Columns = make([]string, len(specs))
		for i, spec := range specs {
			def.Info.Columns[i] = spec.Name
		}
		return def, nil
	}

	columns := make([]string, len(def.Info.Columns))
	for i, col := range def.Info.Columns {
		spec, ok := def.Spec(col)
		if !ok {
			return def, fmt.Errorf("table %s: column %s has no field spec", key, col)
		}
		columns[i] = spec.Name
	}
	def.Info.Columns = columns
	return def, nil
}

// Lookup returns the definition registered under key, or an error wrapping
// ErrTableNotFound.
func Lookup(key string) (TableDefinition, error) {
	registryMu.RLock()
	def, ok := registry[key]
	registryMu.RUnlock()

	if !ok {
		return TableDefinition{}, fmt.Errorf("%w: %s", ErrTableNotFound, key)
	}
	return def, nil
}

// Tables returns every registered table ordered by group, then label.
func Tables() []TableDefinition {
	registryMu.RLock()
	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	registryMu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Info, result[j].Info
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.Key < b.Key
	})
	return result
}

// TableGroup is one group of the table listing.
type TableGroup struct {
	Name   string      `json:"name"`
	Tables []TableInfo `json:"tables"`
}

// Groups returns the registered tables grouped, in the order of Tables.
func Groups() []TableGroup {
	var groups []TableGroup
	for _, def := range Tables() {
		if n := len(groups); n == 0 || groups[n-1].Name != def.Info.Group {
			groups = append(groups, TableGroup{Name: def.Info.Group})
		}
		last := &groups[len(groups)-1]
		last.Tables = append(last.Tables, def.Info)
	}
	return groups
}

// Endpoint returns the data endpoint for the table.
func (i TableInfo) Endpoint() string {
	return APIPrefix + url.PathEscape(i.Key)
}

// ColumnTypes returns the type of each column in display order.
func (t TableDefinition) ColumnTypes() []FieldType {
	types := make([]FieldType, len(t.Info.Columns))
	for i, col := range t.Info.Columns {
		if spec, ok := t.Spec(col); ok {
			types[i] = spec.Type
		}
	}
	return types
}

// TypeNames maps each column to its type name for the table listing.
func (t TableDefinition) TypeNames() map[string]string {
	names := make(map[string]string, len(t.FieldSpecs))
	for _, spec := range t.FieldSpecs {
		names[spec.Name] = spec.Type.String()
	}
	return names
}
