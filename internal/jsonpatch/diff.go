// Package jsonpatch computes RFC 6902 patches between two JSON documents.
// It is used to show what changed between two evaluations of a case, such
// as a baseline and a revised liability share.
package jsonpatch

import (
	"slices"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Operation is one RFC 6902 patch operation.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type wireOperation Operation

type removeOperation struct {
	Op   string `json:"op"`
	Path string `json:"path"`
}

// MarshalJSON omits value for remove operations only; add and replace keep
// it even when it is null.
func (o Operation) MarshalJSON() ([]byte, error) {
	if o.Op == "remove" {
		return json.Marshal(removeOperation{Op: o.Op, Path: o.Path})
	}
	return json.Marshal(wireOperation(o))
}

// Between marshals a and b and returns the patch turning a into b.
func Between(a, b any) ([]Operation, error) {
	da, err := normalize(a)
	if err != nil {
		return nil, err
	}
	db, err := normalize(b)
	if err != nil {
		return nil, err
	}
	return Diff(da, db, ""), nil
}

func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Diff computes the patch that transforms a into b. Both must be the
// result of json.Unmarshal into an interface value; path is "" for the
// document root. Object keys are visited in sorted order so the patch is
// stable.
func Diff(a, b any, path string) []Operation {
	if a == nil && b == nil {
		return nil
	}
	if a == nil || b == nil {
		return []Operation{{Op: "replace", Path: path, Value: b}}
	}

	aMap, aIsMap := a.(map[string]any)
	bMap, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		return diffObjects(aMap, bMap, path)
	}

	aArr, aIsArr := a.([]any)
	bArr, bIsArr := b.([]any)
	if aIsArr && bIsArr {
		return diffArrays(aArr, bArr, path)
	}

	if aIsMap || bIsMap || aIsArr || bIsArr || a != b {
		return []Operation{{Op: "replace", Path: path, Value: b}}
	}
	return nil
}

func diffObjects(a, b map[string]any, path string) []Operation {
	var ops []Operation

	for _, k := range sortedKeys(a) {
		if _, ok := b[k]; !ok {
			ops = append(ops, Operation{Op: "remove", Path: path + "/" + escapeKey(k)})
		}
	}
	for _, k := range sortedKeys(b) {
		child := path + "/" + escapeKey(k)
		av, inA := a[k]
		if !inA {
			ops = append(ops, Operation{Op: "add", Path: child, Value: b[k]})
			continue
		}
		ops = append(ops, Diff(av, b[k], child)...)
	}
	return ops
}

func diffArrays(a, b []any, path string) []Operation {
	var ops []Operation

	common := min(len(a), len(b))
	for i := 0; i < common; i++ {
		ops = append(ops, Diff(a[i], b[i], path+"/"+strconv.Itoa(i))...)
	}
	// Remove from the end so earlier indices stay valid.
	for i := len(a) - 1; i >= common; i-- {
		ops = append(ops, Operation{Op: "remove", Path: path + "/" + strconv.Itoa(i)})
	}
	for i := common; i < len(b); i++ {
		ops = append(ops, Operation{Op: "add", Path: path + "/" + strconv.Itoa(i), Value: b[i]})
	}
	return ops
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// escapeKey escapes a JSON Pointer token per RFC 6901.
func escapeKey(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
