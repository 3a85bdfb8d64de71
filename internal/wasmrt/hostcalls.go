package wasmrt

import (
	"encoding/binary"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/mududb/mududb/internal/abi"
	"github.com/mududb/mududb/internal/kernel/errs"
)

// readMem copies ln bytes out of guest memory starting at ptr.
func readMem(h *hostCtx, ptr, ln int32) []byte {
	buf := make([]byte, ln)
	copy(buf, h.mem.Data()[ptr:ptr+ln])
	return buf
}

// writeMem copies data into guest memory starting at ptr. The guest is
// responsible for having reserved enough space via sys_alloc beforehand.
func writeMem(h *hostCtx, ptr int32, data []byte) {
	copy(h.mem.Data()[ptr:], data)
}

// putU32 writes v as a little-endian u32 at ptr, one of the two 4-byte out
// pointers the preview-1 bridge uses to report (required_length, mem_id).
func putU32(h *hostCtx, ptr int32, v uint32) {
	binary.LittleEndian.PutUint32(h.mem.Data()[ptr:ptr+4], v)
}

// registerHostCalls builds the "env" import set a procedure links against:
// host_query, host_fetch, host_command, and the preview-1 memory-bridge
// retrieval call sys_get_memory. Each of the three call host functions takes
// (argPtr, argLen, outPtr, outLen, outLenPtr, outMemIdPtr): the result is
// written directly into the guest's [outPtr, outPtr+outLen) buffer when it
// fits; otherwise the host stashes it in the per-call memory table and
// writes (required_length, mem_id) into outLenPtr/outMemIdPtr so the guest
// can allocate exactly that many bytes and retrieve them via
// sys_get_memory (§4.11). Mirrors the ptr/len calling convention of the
// teacher's host_read/host_write functions, generalized to carry a full
// ABI-framed envelope instead of a single key/value pair.
func registerHostCalls(store *wasmer.Store, h *hostCtx) *wasmer.ImportObject {
	imports := wasmer.NewImportObject()

	i32 := wasmer.ValueKind(wasmer.I32)

	callShape := wasmer.NewFunctionType(
		wasmer.NewValueTypes(i32, i32, i32, i32, i32, i32),
		wasmer.NewValueTypes(i32),
	)

	hostQuery := wasmer.NewFunction(store, callShape, func(args []wasmer.Value) ([]wasmer.Value, error) {
		argBuf := readMem(h, args[0].I32(), args[1].I32())
		var param abi.QueryParam
		if err := abi.DecodeJSON(argBuf, &param); err != nil {
			h.lastErr = err
			return []wasmer.Value{wasmer.NewI32(-1)}, nil
		}
		result, err := h.bridge.Query(param)
		if err != nil {
			h.lastErr = err
			return []wasmer.Value{wasmer.NewI32(-1)}, nil
		}
		return []wasmer.Value{wasmer.NewI32(h.publish(result, args[2].I32(), args[3].I32(), args[4].I32(), args[5].I32()))}, nil
	})

	hostFetch := wasmer.NewFunction(store, callShape, func(args []wasmer.Value) ([]wasmer.Value, error) {
		argBuf := readMem(h, args[0].I32(), args[1].I32())
		var param abi.FetchParam
		if err := abi.DecodeJSON(argBuf, &param); err != nil {
			h.lastErr = err
			return []wasmer.Value{wasmer.NewI32(-1)}, nil
		}
		result, err := h.bridge.Fetch(param)
		if err != nil {
			h.lastErr = err
			return []wasmer.Value{wasmer.NewI32(-1)}, nil
		}
		return []wasmer.Value{wasmer.NewI32(h.publish(result, args[2].I32(), args[3].I32(), args[4].I32(), args[5].I32()))}, nil
	})

	hostCommand := wasmer.NewFunction(store, callShape, func(args []wasmer.Value) ([]wasmer.Value, error) {
		argBuf := readMem(h, args[0].I32(), args[1].I32())
		var param abi.CommandParam
		if err := abi.DecodeJSON(argBuf, &param); err != nil {
			h.lastErr = err
			return []wasmer.Value{wasmer.NewI32(-1)}, nil
		}
		result, err := h.bridge.Command(param)
		if err != nil {
			h.lastErr = err
			return []wasmer.Value{wasmer.NewI32(-1)}, nil
		}
		return []wasmer.Value{wasmer.NewI32(h.publish(result, args[2].I32(), args[3].I32(), args[4].I32(), args[5].I32()))}, nil
	})

	getMemShape := wasmer.NewFunctionType(
		wasmer.NewValueTypes(i32, i32, i32),
		wasmer.NewValueTypes(i32),
	)
	sysGetMemory := wasmer.NewFunction(store, getMemShape, func(args []wasmer.Value) ([]wasmer.Value, error) {
		memID := uint32(args[0].I32())
		destPtr := args[1].I32()
		destLen := args[2].I32()

		stashed, ok := h.memTable[memID]
		if !ok {
			return nil, errs.New(errs.NoSuchElement, "sys_get_memory: unknown mem_id")
		}
		if int32(len(stashed)) != destLen {
			return nil, errs.New(errs.InsufficientBufferSpace, "sys_get_memory: destination length mismatch")
		}
		delete(h.memTable, memID)
		writeMem(h, destPtr, stashed)
		return []wasmer.Value{wasmer.NewI32(0)}, nil
	})

	imports.Register("env", map[string]wasmer.IntoExtern{
		"host_query":     hostQuery,
		"host_fetch":     hostFetch,
		"host_command":   hostCommand,
		"sys_get_memory": sysGetMemory,
	})
	return imports
}

// publish encodes v as an ABI frame and delivers it to the guest through
// the preview-1 memory bridge (§4.11): if the frame fits in the guest's
// [outPtr, outPtr+outLen) buffer, it is copied in directly and the function
// returns 0 with *outLenPtr set to its exact length and *outMemIdPtr set to
// 0. Otherwise the frame is stashed in the per-call memory table under a
// freshly allocated mem_id, (required_length, mem_id) is written to
// outLenPtr/outMemIdPtr, and the function returns 1 so the guest knows to
// reallocate and call sys_get_memory.
func (h *hostCtx) publish(v any, outPtr, outLen, outLenPtr, outMemIdPtr int32) int32 {
	framed, err := abi.EncodeJSON(v)
	if err != nil {
		h.lastErr = err
		return -1
	}

	if int32(len(framed)) <= outLen {
		writeMem(h, outPtr, framed)
		putU32(h, outLenPtr, uint32(len(framed)))
		putU32(h, outMemIdPtr, 0)
		return 0
	}

	h.nextMemID++
	memID := h.nextMemID
	h.memTable[memID] = framed
	putU32(h, outLenPtr, uint32(len(framed)))
	putU32(h, outMemIdPtr, memID)
	return 1
}
