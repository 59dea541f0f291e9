// Package jsruntime wraps an embedded JavaScript engine (goja) exposing a
// single eval operation, seeded at construction time with the SAT namespace
// that threads assertion state and resolved globals between cases in a
// group.
package jsruntime

import (
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
)

const seedScript = `
SAT = {};
SAT.globals = {};
SAT.tester = function(name, fn) {
  SAT.testName = name;
  try {
    var r = fn();
    return r === true;
  } catch (_) {
    return false;
  }
};
`

// Runtime owns one goja VM. Its lifetime is tied to the group that created
// it; disposing of a Runtime is simply letting it be garbage collected —
// goja holds no native resources beyond Go memory.
type Runtime struct {
	vm *goja.Runtime
}

// New constructs a Runtime with the SAT namespace seeded per §4.3.
func New() (*Runtime, error) {
	vm := goja.New()
	r := &Runtime{vm: vm}
	if _, err := vm.RunString(seedScript); err != nil {
		return nil, fmt.Errorf("jsruntime: failed to seed SAT namespace: %w", err)
	}
	return r, nil
}

// Eval runs source and returns its completion value projected to JSON
// semantics: undefined becomes nil, objects are round-tripped through the
// engine's own JSON encoding, numbers are float64.
func (r *Runtime) Eval(source string) (any, error) {
	v, err := r.vm.RunString(source)
	if err != nil {
		return nil, err
	}
	return exportJSON(r.vm, v)
}

// EvalBool runs source and coerces its completion value to a strict
// boolean: only a literal `true` value counts, everything else (including a
// thrown error) is false. This backs verify_result's post-script semantics.
func (r *Runtime) EvalBool(source string) bool {
	v, err := r.vm.RunString(source)
	if err != nil {
		return false
	}
	b, ok := v.Export().(bool)
	return ok && b
}

// EvalString runs source and returns its value as a string, and whether the
// completion value was in fact a string (as opposed to some other type or
// an evaluation error).
func (r *Runtime) EvalString(source string) (string, bool) {
	v, err := r.vm.RunString(source)
	if err != nil {
		return "", false
	}
	s, ok := v.Export().(string)
	return s, ok
}

// EvalInt runs source and returns its value as an int64, defaulting to 0 on
// error or a non-numeric result.
func (r *Runtime) EvalInt(source string) int64 {
	v, err := r.vm.RunString(source)
	if err != nil {
		return 0
	}
	switch n := v.Export().(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// SetResponse injects SAT.response = { status, body, json } into the
// runtime, following the shape the case executor and post-scripts rely on.
// bodyJSON may be nil when the body did not parse as JSON.
func (r *Runtime) SetResponse(status int, body string, bodyJSON json.RawMessage) error {
	obj := r.vm.NewObject()
	_ = obj.Set("status", status)
	_ = obj.Set("body", body)
	if len(bodyJSON) == 0 {
		_ = obj.Set("json", goja.Null())
	} else {
		var v any
		if err := json.Unmarshal(bodyJSON, &v); err != nil {
			_ = obj.Set("json", goja.Null())
		} else {
			_ = obj.Set("json", r.vm.ToValue(v))
		}
	}
	r.vm.Set("SAT", mergeSAT(r.vm, "response", obj))
	return nil
}

// mergeSAT reassigns a single field on the existing SAT object without
// clobbering SAT.globals / SAT.tester / SAT.testName set elsewhere.
func mergeSAT(vm *goja.Runtime, field string, value goja.Value) goja.Value {
	sat := vm.Get("SAT")
	obj := sat.ToObject(vm)
	_ = obj.Set(field, value)
	return obj
}

// exportJSON converts a goja.Value to a plain Go value by passing it
// through the engine's own JSON.stringify and decoding the result with
// encoding/json (numbers as float64, undefined as nil, objects/arrays as
// map[string]any/[]any).
func exportJSON(vm *goja.Runtime, v goja.Value) (any, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	stringify, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))
	if !ok {
		return v.Export(), nil
	}
	encoded, err := stringify(goja.Undefined(), v)
	if err != nil {
		return nil, err
	}
	if goja.IsUndefined(encoded) {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal([]byte(encoded.String()), &out); err != nil {
		return nil, err
	}
	return out, nil
}
