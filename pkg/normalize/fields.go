package normalize

import (
	"strings"

	"github.com/tidwall/gjson"
)

// present reports whether r holds a value other than JSON null.
func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

// first returns the first present value among the given keys (or gjson
// paths) of obj. Missing and null keys fall through to the next alias.
func first(obj gjson.Result, keys ...string) gjson.Result {
	if !obj.IsObject() {
		return gjson.Result{}
	}
	for _, k := range keys {
		if v := obj.Get(k); present(v) {
			return v
		}
	}
	return gjson.Result{}
}

// pick is first across several objects: objects earlier in objs win.
func pick(objs []gjson.Result, keys ...string) gjson.Result {
	for _, obj := range objs {
		if v := first(obj, keys...); present(v) {
			return v
		}
	}
	return gjson.Result{}
}

func str(obj gjson.Result, keys ...string) string {
	return strings.TrimSpace(first(obj, keys...).String())
}

func num(obj gjson.Result, keys ...string) float64 {
	return first(obj, keys...).Float()
}

func numOr(obj gjson.Result, def float64, keys ...string) float64 {
	v := first(obj, keys...)
	if !present(v) {
		return def
	}
	return v.Float()
}

func integer(obj gjson.Result, keys ...string) int {
	return int(first(obj, keys...).Int())
}

func boolean(obj gjson.Result, keys ...string) bool {
	return first(obj, keys...).Bool()
}

// label reads a reference that the service sends either as a bare string or
// as an object with a name or identifier.
func label(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return strings.TrimSpace(v.String())
	case v.IsObject():
		return str(v, "nombre", "nombre_ubicacion", "name", "hub_id", "id")
	}
	return ""
}

// section returns the object at path. The empty path addresses the document
// root. Absent, null and non-object values yield an empty Result, so reads
// through it fall back to defaults.
func section(root gjson.Result, path string) gjson.Result {
	if path == "" {
		return root
	}
	v := root.Get(path)
	if !v.IsObject() {
		return gjson.Result{}
	}
	return v
}

func sections(root gjson.Result, paths []string) []gjson.Result {
	out := make([]gjson.Result, 0, len(paths))
	for _, p := range paths {
		if s := section(root, p); s.IsObject() {
			out = append(out, s)
		}
	}
	return out
}

// list returns the array elements at path, or nil when the path is absent,
// null or not an array.
func list(root gjson.Result, path string) []gjson.Result {
	if path == "" {
		return nil
	}
	v := root.Get(path)
	if !v.IsArray() {
		return nil
	}
	return v.Array()
}

func lists(root gjson.Result, paths []string) []gjson.Result {
	var out []gjson.Result
	for _, p := range paths {
		out = append(out, list(root, p)...)
	}
	return out
}
