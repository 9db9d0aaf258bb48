package memory

import "fmt"

// Closures are boxed as a PtrClosure NaN pointer whose aux field is the
// function-table index and whose offset is the heap offset of the
// captured environment array. Because every runtime value, number or
// pointer, shares the f64 representation, every generated function that
// can be called indirectly (whether lifted or not) is given the uniform
// signature (env: f64, arg0: f64, ..., argN-1: f64) -> f64, so a single
// family of call-arity helpers (invoke1..invokeN) can call any closure
// without the caller needing to know its concrete parameter types, only
// how many arguments it is applying.
func init() {
	register(Primitive{
		Name: "mk_closure",
		WAT: `(func $mk_closure (param $tableidx i32) (param $envoffset i32) (result f64)
  (call $mkptr (i32.const 3) (local.get $tableidx) (local.get $envoffset)))`,
		Requires: []string{"mkptr"},
	})

	register(Primitive{
		Name: "closure_table_idx",
		WAT: `(func $closure_table_idx (param $v f64) (result i32)
  (call $ptr_aux (local.get $v)))`,
		Requires: []string{"ptr_aux"},
	})

	register(Primitive{
		Name: "closure_env",
		// Rebuilds the captured environment as an ordinary PtrArray value
		// (type 0, no aux) rather than exposing the raw heap offset, so
		// the callee can read/write its fields with the plain arr_get/
		// arr_set primitives like any other array.
		WAT: `(func $closure_env (param $v f64) (result f64)
  (call $mkptr (i32.const 0) (i32.const 0) (call $ptr_offset (local.get $v))))`,
		Requires: []string{"mkptr", "ptr_offset"},
	})

	for n := 0; n <= 3; n++ {
		register(invokeN(n))
	}
}

// invokeN builds the $invokeN primitive: it extracts a closure's table
// index and environment offset and performs a call_indirect against the
// arity-(n+1) function type (the +1 is the leading environment
// parameter every lifted function accepts).
func invokeN(n int) Primitive {
	params := ""
	args := ""

	for i := 0; i < n; i++ {
		params += fmt.Sprintf(" (param $a%d f64)", i)
		args += fmt.Sprintf(" (local.get $a%d)", i)
	}

	wat := fmt.Sprintf(`(func $invoke%d (param $closure f64)%s (result f64)
  (call_indirect (type $fn%d) (call $closure_env (local.get $closure))%s (call $closure_table_idx (local.get $closure))))`,
		n, params, n, args)

	return Primitive{
		Name:     fmt.Sprintf("invoke%d", n),
		WAT:      wat,
		Requires: []string{"closure_table_idx", "closure_env"},
	}
}
