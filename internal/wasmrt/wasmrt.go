// Package wasmrt implements MuduDB's WASM procedure runtime (C13): a
// wasmer-go engine hosting compiled stored-procedure modules, the three
// host calls a procedure can make back into the kernel (query, fetch,
// command), and the memory bridge used to pass ABI-framed byte buffers
// across the guest/host boundary. Grounded on the wasmer-go usage in
// core/virtual_machine.go's HeavyVM (engine/store/module/instance
// lifecycle, host function registration via wasmer.NewFunction +
// ImportObject.Register), generalized from a single fixed "env" import set
// of blockchain host calls to this kernel's query/fetch/command ABI.
package wasmrt

import (
	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/mududb/mududb/internal/abi"
	"github.com/mududb/mududb/internal/kernel/errs"
)

// HostBridge is the seam the runtime calls into for the three host calls a
// procedure may issue; the transaction/session layer (C11) implements it.
type HostBridge interface {
	Query(p abi.QueryParam) (abi.QueryResult, error)
	Fetch(p abi.FetchParam) (abi.FetchResult, error)
	Command(p abi.CommandParam) (abi.CommandResult, error)
}

// Engine owns the wasmer engine and a compiled-module cache keyed by the
// caller's cache key (procpkg uses package/version/module), so repeated calls to the same procedure reuse their
// compiled module instead of recompiling on every invocation (an
// "InstancePre"-style reuse of the compiled artifact; wasmer-go does not
// expose a literal InstancePre type the way some other runtimes do, so
// reuse here is implemented by caching the *wasmer.Module and instantiating
// a fresh *wasmer.Instance per call, which is wasmer-go's supported reuse
// granularity).
type Engine struct {
	engine *wasmer.Engine
	cache  map[string]*wasmer.Module
	store  *wasmer.Store
}

// NewEngine creates a fresh WASM engine and its shared compilation store.
func NewEngine() *Engine {
	e := wasmer.NewEngine()
	return &Engine{
		engine: e,
		store:  wasmer.NewStore(e),
		cache:  make(map[string]*wasmer.Module),
	}
}

// Compile compiles code under cacheKey, reusing a previously compiled
// module for the same key if present.
func (e *Engine) Compile(cacheKey string, code []byte) (*wasmer.Module, error) {
	if m, ok := e.cache[cacheKey]; ok {
		return m, nil
	}
	mod, err := wasmer.NewModule(e.store, code)
	if err != nil {
		return nil, errs.Wrap(errs.DecodeErr, "compile wasm module "+cacheKey, err)
	}
	e.cache[cacheKey] = mod
	return mod, nil
}

// Invocation is one call into a procedure's WASM export, carrying the host
// bridge it may call back into.
type Invocation struct {
	CacheKey   string
	Code       []byte
	ExportName string
	Param      []byte // ABI-framed argument
	Bridge     HostBridge
}

// hostCtx is the per-call state visible to the registered host functions,
// mirroring the teacher's hostCtx struct. memTable backs the preview-1
// memory bridge (§4.11): a host_query/fetch/command result too large for
// the guest's output buffer is stashed here under a freshly minted mem_id
// until the guest retrieves it via sys_get_memory, at which point the entry
// is deleted so a second retrieval of the same mem_id fails.
type hostCtx struct {
	mem       *wasmer.Memory
	bridge    HostBridge
	lastErr   error
	memTable  map[uint32][]byte
	nextMemID uint32
}

// Call compiles (or reuses) inv.Code, instantiates it with the three host
// calls wired in, writes inv.Param into guest memory, invokes the named
// export, and returns the ABI-framed result the guest wrote back (§4.12).
func (e *Engine) Call(inv Invocation) ([]byte, error) {
	mod, err := e.Compile(inv.CacheKey, inv.Code)
	if err != nil {
		return nil, err
	}

	hctx := &hostCtx{bridge: inv.Bridge, memTable: make(map[uint32][]byte)}
	imports := registerHostCalls(e.store, hctx)

	instance, err := wasmer.NewInstance(mod, imports)
	if err != nil {
		return nil, errs.Wrap(errs.InternalErr, "instantiate wasm module", err)
	}

	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, errs.New(errs.InternalErr, "wasm module does not export linear memory")
	}
	hctx.mem = mem

	alloc, err := instance.Exports.GetFunction("sys_alloc")
	if err != nil {
		return nil, errs.New(errs.InternalErr, "wasm module does not export sys_alloc")
	}
	ptrAny, err := alloc(int32(len(inv.Param)))
	if err != nil {
		return nil, errs.Wrap(errs.InternalErr, "sys_alloc call failed", err)
	}
	ptr := ptrAny.(int32)
	copy(mem.Data()[ptr:], inv.Param)

	fn, err := instance.Exports.GetFunction(inv.ExportName)
	if err != nil {
		return nil, errs.New(errs.FunctionNotImplemented, "wasm module does not export "+inv.ExportName)
	}

	resultAny, err := fn(ptr, int32(len(inv.Param)))
	if err != nil {
		return nil, errs.Wrap(errs.InternalErr, "procedure export failed", err)
	}
	if hctx.lastErr != nil {
		return nil, hctx.lastErr
	}

	// The export's own return leg (guest -> host) is not subject to the
	// preview-1 output-buffer bridge above: the guest controls its own
	// arena, so it packs its result as a single i64 (length<<32|pointer)
	// instead of negotiating a host-supplied buffer.
	packed, ok := resultAny.(int64)
	if !ok {
		return nil, errs.New(errs.InternalErr, "procedure export "+inv.ExportName+" must return a packed i64 (length<<32|pointer)")
	}
	outLen := int32(uint64(packed) >> 32)
	outPtr := int32(uint64(packed) & 0xffffffff)

	out := make([]byte, outLen)
	copy(out, mem.Data()[outPtr:outPtr+outLen])
	return out, nil
}
