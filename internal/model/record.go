// Package model defines the Record type shared by the store, the rule engine
// and the HTTP layer, together with the reserved-field conventions that the
// store enforces on every write.
package model

// Reserved field names. The store owns these: clients cannot set them through
// a write, and a full replace preserves them from the existing entry.
const (
	FieldID        = "_id"
	FieldOwnerID   = "_ownerId"
	FieldCreatedOn = "_createdOn"
	FieldUpdatedOn = "_updatedOn"
	FieldDeletedOn = "_deletedOn"
)

// reserved is the set of fields stripped from incoming data and carried over
// verbatim on replace. _deletedOn is not listed: it only ever appears in the
// synthetic record returned by a delete.
var reserved = []string{FieldID, FieldCreatedOn, FieldUpdatedOn, FieldOwnerID}

// Record is a single stored entity: field name to JSON-compatible value.
// Values follow encoding/json conventions (float64 numbers, string, bool,
// nil, []any, map[string]any).
type Record map[string]any

// ID returns the record's _id, or the empty string when unset.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// OwnerID returns the record's _ownerId, or the empty string when unset.
func (r Record) OwnerID() string {
	id, _ := r[FieldOwnerID].(string)
	return id
}

// Clone returns a deep copy of the record. Mutating the copy never affects
// the original, including nested maps and slices.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = DeepCopy(v)
	}
	return out
}

// DeepCopy copies an arbitrary JSON-compatible value.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = DeepCopy(e)
		}
		return out
	case Record:
		out := make(Record, len(t))
		for k, e := range t {
			out[k] = DeepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = DeepCopy(e)
		}
		return out
	default:
		return v
	}
}

// AssignClean deep-copies every non-reserved field of src into dst and
// returns dst. Reserved fields in src are ignored, which is how client data
// is scrubbed before it reaches the store.
func AssignClean(dst, src Record) Record {
	for k, v := range src {
		if isReserved(k) {
			continue
		}
		dst[k] = DeepCopy(v)
	}
	return dst
}

// AssignSystem copies the reserved fields present in src into dst and
// returns dst. Used on full replace to keep ownership and timestamps intact.
func AssignSystem(dst, src Record) Record {
	for _, k := range reserved {
		if v, ok := src[k]; ok {
			dst[k] = DeepCopy(v)
		}
	}
	return dst
}

func isReserved(key string) bool {
	for _, k := range reserved {
		if k == key {
			return true
		}
	}
	return false
}
