// Package runner evaluates a submission against its test cases inside a
// fresh, restricted Lua state. The namespace is the trust boundary: only
// base, table, string and math libraries are opened, and the load/require
// escape hatches are removed before any user code runs. Process-level
// isolation is layered on top by cmd/sandbox-runner.
package runner

import (
	"context"
	"fmt"
	"time"

	"codearena/internal/exec"

	lua "github.com/yuin/gopher-lua"
)

// removedGlobals are base-library entries that reach outside the
// submission's namespace and are stripped before user code loads.
var removedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
	"package",
	"collectgarbage",
	"print",
}

// Evaluate compiles the submission, resolves the entry point and runs
// every test case. It never returns an error: all failure modes are
// folded into the verdict.
func Evaluate(req exec.Request) exec.Verdict {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		IncludeGoStackTrace: false,
	})
	defer L.Close()

	ctx := context.Background()
	if req.TimeLimitMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeLimitMs)*time.Millisecond)
		defer cancel()
	}
	L.SetContext(ctx)

	if err := openRestrictedLibs(L); err != nil {
		return exec.Verdict{Passed: false, Error: fmt.Sprintf("initialize sandbox: %v", err)}
	}

	if err := L.DoString(req.Source); err != nil {
		if ctx.Err() != nil {
			return exec.Verdict{Passed: false, Error: "time limit exceeded"}
		}
		return exec.Verdict{Passed: false, Error: fmt.Sprintf("load source: %v", err)}
	}

	fn := L.GetGlobal(req.EntryPoint)
	if fn.Type() != lua.LTFunction {
		return exec.Verdict{
			Passed: false,
			Error:  fmt.Sprintf("function %q not found", req.EntryPoint),
		}
	}

	verdict := exec.Verdict{Passed: true, Results: make([]exec.CaseResult, 0, len(req.Tests))}
	for i, tc := range req.Tests {
		res := runCase(L, fn, i+1, tc)
		verdict.Results = append(verdict.Results, res)
		if !res.Passed {
			verdict.Passed = false
		}
		if ctx.Err() != nil {
			verdict.Passed = false
			verdict.Error = "time limit exceeded"
			break
		}
	}
	return verdict
}

func runCase(L *lua.LState, fn lua.LValue, num int, tc exec.TestCase) exec.CaseResult {
	res := exec.CaseResult{
		Test:     num,
		Input:    tc.Input,
		Expected: tc.Expected,
	}

	args := make([]lua.LValue, 0, len(tc.Input))
	for _, in := range tc.Input {
		args = append(args, toLua(L, in))
	}

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		res.Error = err.Error()
		return res
	}
	ret := L.Get(-1)
	L.Pop(1)

	res.Actual = fromLua(ret)
	res.Passed = Equal(res.Actual, tc.Expected)
	return res
}

// openRestrictedLibs opens the allow-listed standard libraries and strips
// the globals that could escape the namespace.
func openRestrictedLibs(L *lua.LState) error {
	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return err
		}
	}
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return nil
}

// toLua converts a JSON-shaped Go value into a Lua value.
func toLua(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case string:
		return lua.LString(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case []any:
		tbl := L.CreateTable(len(v), 0)
		for _, item := range v {
			tbl.Append(toLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.CreateTable(0, len(v))
		for key, item := range v {
			tbl.RawSetString(key, toLua(L, item))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

// fromLua converts a Lua return value back into a JSON-shaped Go value.
// A table whose keys are exactly 1..n becomes a sequence; any other
// table becomes a map.
func fromLua(v lua.LValue) any {
	switch v := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		return fromLuaTable(v)
	default:
		return v.String()
	}
}

func fromLuaTable(tbl *lua.LTable) any {
	n := tbl.Len()
	entries := 0
	isSeq := true
	tbl.ForEach(func(k, _ lua.LValue) {
		entries++
		kn, ok := k.(lua.LNumber)
		if !ok || float64(kn) != float64(int(kn)) || int(kn) < 1 || int(kn) > n {
			isSeq = false
		}
	})

	if isSeq && entries == n {
		seq := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			seq = append(seq, fromLua(tbl.RawGetInt(i)))
		}
		return seq
	}

	m := make(map[string]any, entries)
	tbl.ForEach(func(k, val lua.LValue) {
		m[k.String()] = fromLua(val)
	})
	return m
}
