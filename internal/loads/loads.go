// Package loads restricts which fields of each entity a statement loads.
package loads

import (
	"fmt"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/models"
	"github.com/rzpsarthak13/query-filters/internal/query"
)

// Spec is the typed form of a load spec. Model is a declared entity name,
// Table a storage table name; both are optional and Table wins over Model.
type Spec struct {
	Model  string   `yaml:"model,omitempty" json:"model,omitempty"`
	Table  string   `yaml:"table,omitempty" json:"table,omitempty"`
	Fields []string `yaml:"fields" json:"fields"`
}

// LoadOnly is a validated load spec.
type LoadOnly struct {
	Ref    models.SpecRef
	Fields []string
}

// NewLoadOnly validates a single load spec element: a Spec, a *Spec or a
// map with a mandatory "fields" list and optional "model" and "table" names.
func NewLoadOnly(spec interface{}) (LoadOnly, error) {
	switch s := spec.(type) {
	case Spec:
		return fromSpec(s)
	case *Spec:
		if s == nil {
			return LoadOnly{}, notAMapping(spec)
		}
		return fromSpec(*s)
	case map[string]interface{}:
		return fromMap(s)
	case map[string][]string:
		return fromListMap(s)
	default:
		return LoadOnly{}, notAMapping(spec)
	}
}

func fromSpec(s Spec) (LoadOnly, error) {
	if s.Fields == nil {
		return LoadOnly{}, missingFields()
	}
	return LoadOnly{Ref: models.SpecRef{Model: s.Model, Table: s.Table}, Fields: s.Fields}, nil
}

func fromMap(m map[string]interface{}) (LoadOnly, error) {
	raw, ok := m["fields"]
	if !ok {
		return LoadOnly{}, missingFields()
	}
	fields, ok := stringList(raw)
	if !ok {
		return LoadOnly{}, fmt.Errorf("%w: `fields` should be a list of field names, got `%v`", core.ErrBadLoadFormat, raw)
	}

	model, err := optionalName(m, "model")
	if err != nil {
		return LoadOnly{}, err
	}
	table, err := optionalName(m, "table")
	if err != nil {
		return LoadOnly{}, err
	}
	return LoadOnly{Ref: models.SpecRef{Model: model, Table: table}, Fields: fields}, nil
}

// fromListMap handles the form where every value is a list; model and table
// must then hold a single name.
func fromListMap(m map[string][]string) (LoadOnly, error) {
	fields, ok := m["fields"]
	if !ok {
		return LoadOnly{}, missingFields()
	}

	model, err := singleName(m, "model")
	if err != nil {
		return LoadOnly{}, err
	}
	table, err := singleName(m, "table")
	if err != nil {
		return LoadOnly{}, err
	}
	return LoadOnly{Ref: models.SpecRef{Model: model, Table: table}, Fields: fields}, nil
}

func singleName(m map[string][]string, key string) (string, error) {
	names, ok := m[key]
	if !ok {
		return "", nil
	}
	if len(names) != 1 {
		return "", fmt.Errorf("%w: `%s` should be a name, got `%v`", core.ErrBadLoadFormat, key, names)
	}
	return names[0], nil
}

func optionalName(m map[string]interface{}, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	name, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: `%s` should be a name, got `%v`", core.ErrBadLoadFormat, key, v)
	}
	return name, nil
}

func notAMapping(spec interface{}) error {
	return fmt.Errorf("%w: load spec `%v` should be a dictionary", core.ErrBadLoadFormat, spec)
}

func missingFields() error {
	return fmt.Errorf("%w: `fields` is a mandatory attribute", core.ErrBadLoadFormat)
}

// stringList accepts []string and []interface{} holding only strings.
func stringList(v interface{}) ([]string, bool) {
	switch l := v.(type) {
	case []string:
		return l, true
	case []interface{}:
		out := make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// Parse turns any accepted spec shape into validated load specs:
//
//   - a flat list of field names, shorthand for one spec without a model
//   - a single mapping or Spec
//   - a list of mappings or Specs
//
// A nil spec yields no load specs; any empty list yields one spec without
// fields. Every element is validated before anything is returned.
func Parse(spec interface{}) ([]LoadOnly, error) {
	elements, err := normalize(spec)
	if err != nil {
		return nil, err
	}

	out := make([]LoadOnly, 0, len(elements))
	for _, el := range elements {
		l, err := NewLoadOnly(el)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func normalize(spec interface{}) ([]interface{}, error) {
	switch s := spec.(type) {
	case nil:
		return nil, nil
	case []string:
		return []interface{}{Spec{Fields: append([]string{}, s...)}}, nil
	case []interface{}:
		if fields, ok := stringList(s); ok {
			return []interface{}{Spec{Fields: fields}}, nil
		}
		return s, nil
	case []Spec:
		return orEmptySpec(lo.ToAnySlice(s)), nil
	case []*Spec:
		return orEmptySpec(lo.ToAnySlice(s)), nil
	case []map[string]interface{}:
		return orEmptySpec(lo.ToAnySlice(s)), nil
	case Spec, *Spec, map[string]interface{}, map[string][]string:
		return []interface{}{s}, nil
	default:
		return nil, notAMapping(spec)
	}
}

// orEmptySpec turns an empty list into a single spec without fields, which
// loads only primary keys, as an empty list of names does.
func orEmptySpec(elements []interface{}) []interface{} {
	if len(elements) == 0 {
		return []interface{}{Spec{Fields: []string{}}}
	}
	return elements
}

// Decode parses a load spec written as JSON or YAML into the generic shape
// accepted by ApplyLoads.
func Decode(data []byte) (interface{}, error) {
	var spec interface{}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: failed to decode load spec: %v", core.ErrBadLoadFormat, err)
	}
	return spec, nil
}

// ApplyLoads attaches one load-only option per spec to stmt. Entities that
// specs name but stmt does not reference are joined first when a join can
// be inferred. Unnamed specs apply to the statement's only entity as it was
// before any join. stmt itself is never modified.
func ApplyLoads(reg models.Registry, stmt query.Statement, spec interface{}) (query.Statement, error) {
	specs, err := Parse(spec)
	if err != nil {
		return query.Statement{}, err
	}
	if len(specs) == 0 {
		return stmt, nil
	}

	defaultEntity := models.DefaultEntity(reg, stmt)
	stmt = models.AutoJoin(reg, stmt, namedEntities(reg, specs)...)

	opts := make([]query.Option, 0, len(specs))
	for _, s := range specs {
		entity, err := models.ResolveEntityForSpec(reg, s.Ref, stmt, defaultEntity)
		if err != nil {
			return query.Statement{}, err
		}

		exprs := make([]core.Expression, 0, len(s.Fields))
		for _, name := range s.Fields {
			expr, err := models.NewField(entity, name).Expression()
			if err != nil {
				return query.Statement{}, err
			}
			exprs = append(exprs, expr)
		}
		opts = append(opts, query.LoadOnly(entity.Table, exprs...))
	}
	return stmt.Options(opts...), nil
}

// namedEntities returns the declared names the specs refer to, in order and
// without duplicates. Storage names are mapped to their entity.
func namedEntities(reg models.Registry, specs []LoadOnly) []string {
	var names []string
	for _, s := range specs {
		name := s.Ref.Model
		if s.Ref.Table != "" {
			name = ""
			if e, ok := models.EntityByStorageName(reg, s.Ref.Table); ok {
				name = e.Name
			}
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return lo.Uniq(names)
}
