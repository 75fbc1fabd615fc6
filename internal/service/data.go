// Package service contains the request-level services behind the HTTP
// handlers: the generic collection CRUD with its query pipeline, the
// free-form JSON tree, and the runtime behavior flags.
package service

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/lostpaws/pawserver/internal/auth"
	"github.com/lostpaws/pawserver/internal/errs"
	"github.com/lostpaws/pawserver/internal/model"
	"github.com/lostpaws/pawserver/internal/rules"
	"github.com/lostpaws/pawserver/internal/store"
)

// Caller identifies who is making a request: the resolved user, if any, and
// whether the admin bypass header was present.
type Caller struct {
	User  model.Record
	Admin bool
}

// Data serves the generic collection endpoints. Reads go through the query
// pipeline (where, sortBy, offset/pageSize, distinct, count, load, select)
// and every operation is checked against the rule engine — after resolution
// for reads, before the write for mutations.
type Data struct {
	store  *store.Store
	users  *store.Store // protected store, for load relations into users
	engine *rules.Engine
}

// NewData wires the data service. users is the protected store so that
// load=...:users can resolve user profiles without exposing credentials.
func NewData(s *store.Store, users *store.Store, engine *rules.Engine) *Data {
	return &Data{store: s, users: users, engine: engine}
}

// Collections lists the names of every stored collection.
func (d *Data) Collections() []string {
	names := d.store.Collections()
	sort.Strings(names)
	return names
}

// Get reads a single record (id set) or a list, applies the query pipeline,
// and checks the read rule against the result. count= short-circuits with the
// matching record count before any rule check, matching the public contract.
func (d *Data) Get(caller Caller, collection, id string, q url.Values) (any, error) {
	var result any
	if id != "" {
		record, err := d.store.Get(collection, id)
		if err != nil {
			return nil, translate(err)
		}
		result = record
	} else {
		records, err := d.store.List(collection)
		if err != nil {
			return nil, translate(err)
		}
		records, err = d.pipeline(records, q)
		if err != nil {
			return nil, err
		}
		if q.Has("count") {
			return len(records), nil
		}
		result = records
	}

	if load := q.Get("load"); load != "" {
		for _, relation := range strings.Split(load, ",") {
			if err := d.loadRelation(result, strings.TrimSpace(relation)); err != nil {
				return nil, err
			}
		}
	}
	if sel := q.Get("select"); sel != "" {
		result = project(result, sel)
	}

	err := d.engine.Check(rules.Request{
		User:       caller.User,
		Admin:      caller.Admin,
		Collection: collection,
		Action:     rules.ActionRead,
		Data:       result,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Create checks the create rule, stamps ownership from the caller and stores
// the record.
func (d *Data) Create(caller Caller, collection string, body model.Record) (model.Record, error) {
	if body == nil {
		return nil, errs.Request()
	}
	err := d.engine.Check(rules.Request{
		User:       caller.User,
		Admin:      caller.Admin,
		Collection: collection,
		Action:     rules.ActionCreate,
		NewData:    body,
	})
	if err != nil {
		return nil, err
	}
	if caller.User != nil {
		body = body.Clone()
		body[model.FieldOwnerID] = caller.User.ID()
	}
	return d.store.Add(collection, body), nil
}

// Replace overwrites a record wholesale after the update rule passes.
func (d *Data) Replace(caller Caller, collection, id string, body model.Record) (model.Record, error) {
	return d.update(caller, collection, id, body, d.store.Set)
}

// Patch shallow-merges fields into a record after the update rule passes.
func (d *Data) Patch(caller Caller, collection, id string, body model.Record) (model.Record, error) {
	return d.update(caller, collection, id, body, d.store.Merge)
}

func (d *Data) update(caller Caller, collection, id string, body model.Record, write func(string, string, model.Record) (model.Record, error)) (model.Record, error) {
	if body == nil {
		return nil, errs.Request()
	}
	existing, err := d.store.Get(collection, id)
	if err != nil {
		return nil, translate(err)
	}
	err = d.engine.Check(rules.Request{
		User:       caller.User,
		Admin:      caller.Admin,
		Collection: collection,
		Action:     rules.ActionUpdate,
		Data:       existing,
		NewData:    body,
	})
	if err != nil {
		return nil, err
	}
	record, err := write(collection, id, body)
	if err != nil {
		return nil, translate(err)
	}
	return record, nil
}

// Delete removes a record after the delete rule passes and returns the
// deletion stamp.
func (d *Data) Delete(caller Caller, collection, id string) (model.Record, error) {
	existing, err := d.store.Get(collection, id)
	if err != nil {
		return nil, translate(err)
	}
	err = d.engine.Check(rules.Request{
		User:       caller.User,
		Admin:      caller.Admin,
		Collection: collection,
		Action:     rules.ActionDelete,
		Data:       existing,
	})
	if err != nil {
		return nil, err
	}
	record, err := d.store.Delete(collection, id)
	if err != nil {
		return nil, translate(err)
	}
	return record, nil
}

// pipeline applies the list-shaping query parameters in their fixed order:
// filter, sort, page, distinct.
func (d *Data) pipeline(records []model.Record, q url.Values) ([]model.Record, error) {
	if expr := q.Get("where"); expr != "" {
		clause, err := parseWhere(expr)
		if err != nil {
			return nil, err
		}
		filtered := records[:0]
		for _, r := range records {
			if clause.match(r) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	if sortBy := q.Get("sortBy"); sortBy != "" {
		sortRecords(records, sortBy)
	}
	if q.Has("offset") || q.Has("pageSize") {
		records = page(records, q.Get("offset"), q.Get("pageSize"), q.Has("pageSize"))
	}
	if distinct := q.Get("distinct"); distinct != "" {
		records = distinctBy(records, distinct)
	}
	return records, nil
}

// sortRecords sorts by a comma-separated key list. Keys are applied from last
// to first with a stable sort, so the first key ends up dominant. A key may
// carry a "desc" suffix.
func sortRecords(records []model.Record, sortBy string) {
	keys := strings.Split(sortBy, ",")
	for i := len(keys) - 1; i >= 0; i-- {
		key := strings.TrimSpace(keys[i])
		desc := false
		if rest, ok := strings.CutSuffix(key, " desc"); ok {
			key, desc = strings.TrimSpace(rest), true
		}
		sort.SliceStable(records, func(a, b int) bool {
			cmp, ok := compareValues(records[a][key], records[b][key])
			if !ok {
				return false
			}
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
}

// page slices the list by offset and pageSize. The size limit applies only
// when the pageSize parameter was actually sent; offset alone returns the
// whole remainder. Unparsable values fall back to offset 0 and pageSize 10.
func page(records []model.Record, offsetParam, sizeParam string, hasSize bool) []model.Record {
	offset, err := strconv.Atoi(offsetParam)
	if err != nil || offset < 0 {
		offset = 0
	}
	if offset > len(records) {
		offset = len(records)
	}
	end := len(records)
	if hasSize {
		size, err := strconv.Atoi(sizeParam)
		if err != nil || size < 0 {
			size = 10
		}
		if offset+size < end {
			end = offset + size
		}
	}
	return records[offset:end]
}

// distinctBy keeps the first record for each distinct combination of the
// comma-separated fields.
func distinctBy(records []model.Record, fields string) []model.Record {
	keys := strings.Split(fields, ",")
	seen := map[string]bool{}
	out := records[:0]
	for _, r := range records {
		parts := make([]string, len(keys))
		for i, key := range keys {
			parts[i] = stringify(r[strings.TrimSpace(key)])
		}
		composite := strings.Join(parts, "::")
		if !seen[composite] {
			seen[composite] = true
			out = append(out, r)
		}
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// project reduces each record to the comma-separated field list. Fields the
// record does not have are simply absent from the projection.
func project(result any, sel string) any {
	fields := strings.Split(sel, ",")
	pick := func(r model.Record) model.Record {
		out := model.Record{}
		for _, f := range fields {
			f = strings.TrimSpace(f)
			if v, ok := r[f]; ok {
				out[f] = v
			}
		}
		return out
	}
	switch t := result.(type) {
	case model.Record:
		return pick(t)
	case []model.Record:
		out := make([]model.Record, len(t))
		for i, r := range t {
			out[i] = pick(r)
		}
		return out
	}
	return result
}

// loadRelation resolves one alias=fkField:collection relation by attaching
// the referenced record under alias; load= can carry several, comma
// separated. References into users resolve against the protected store with
// the password digest removed; a dangling reference leaves the alias unset.
func (d *Data) loadRelation(result any, load string) error {
	alias, relation, ok := strings.Cut(load, "=")
	if !ok {
		return errs.Request()
	}
	fkField, relCollection, ok := strings.Cut(relation, ":")
	if !ok {
		return errs.Request()
	}

	resolve := func(r model.Record) {
		fk, _ := r[fkField].(string)
		if fk == "" {
			return
		}
		var related model.Record
		var err error
		if relCollection == auth.CollectionUsers {
			related, err = d.users.Get(relCollection, fk)
			if related != nil {
				delete(related, auth.FieldHashedPassword)
			}
		} else {
			related, err = d.store.Get(relCollection, fk)
		}
		if err != nil {
			return
		}
		r[alias] = related
	}

	switch t := result.(type) {
	case model.Record:
		resolve(t)
	case []model.Record:
		for _, r := range t {
			resolve(r)
		}
	}
	return nil
}

// translate maps store sentinels onto service errors.
func translate(err error) error {
	switch err {
	case store.ErrCollectionNotFound, store.ErrEntryNotFound:
		return errs.NotFound()
	case nil:
		return nil
	default:
		return err
	}
}
