package procpkg

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/mududb/mududb/internal/snapshot"
	"github.com/mududb/mududb/internal/txn"
	"github.com/mududb/mududb/internal/wasmrt"
)

func buildTestMpk(t *testing.T, ddl string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := map[string]string{
		"package.cfg.toml": "entrypoint = \"main.wasm\"\n",
		"package.desc.json": `{
			"name": "orders",
			"version": "1.0.0",
			"modules": {
				"main": [
					{"module": "main", "name": "place_order", "param_desc": {"name": "params"}, "return_desc": {"name": "result"}, "is_async": false}
				]
			}
		}`,
		"ddl.sql":    ddl,
		"initdb.sql": "INSERT INTO orders VALUES (1, 1);",
		"main.wasm":  "\x00asm\x01\x00\x00\x00",
	}
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestLoadExtractsManifestAndWasm(t *testing.T) {
	r := buildTestMpk(t, "CREATE TABLE orders (id INT, qty BIGINT);")
	pkg, err := Load(r, r.Size())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pkg.Config.Entrypoint != "main.wasm" {
		t.Fatalf("Entrypoint = %q", pkg.Config.Entrypoint)
	}
	if pkg.Desc.Name != "orders" || len(pkg.Desc.Modules["main"]) != 1 {
		t.Fatalf("unexpected desc: %+v", pkg.Desc)
	}
	if _, ok := pkg.Wasm["main.wasm"]; !ok {
		t.Fatalf("expected main.wasm to be extracted")
	}
	if pkg.DDL == "" || pkg.InitDB == "" {
		t.Fatalf("expected ddl/initdb scripts to be extracted")
	}
}

func TestRegistryRegisterIsIdempotentAndLookupWorks(t *testing.T) {
	r := buildTestMpk(t, "CREATE TABLE orders (id INT, qty BIGINT);")
	pkg, err := Load(r, r.Size())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	db := txn.NewDatabase(snapshot.NewManager(), nil)
	engine := wasmrt.NewEngine()
	reg := NewRegistry()

	if err := reg.Register(pkg, db, engine); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(pkg, db, engine); err != nil {
		t.Fatalf("expected re-registering the same package to be a no-op, got: %v", err)
	}

	foundPkg, proc, err := reg.Lookup("main", "place_order")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if foundPkg.Desc.Name != "orders" || proc.Desc.Name != "place_order" {
		t.Fatalf("unexpected lookup result: %+v %+v", foundPkg.Desc, proc.Desc)
	}
	if proc.CacheKey == "" {
		t.Fatalf("expected a non-empty compiled-module cache key")
	}

	if _, _, err := reg.Lookup("main", "missing"); err == nil {
		t.Fatalf("expected error looking up unknown procedure")
	}
}

func TestRegistryRegisterRejectsConflictingReinstall(t *testing.T) {
	r1 := buildTestMpk(t, "CREATE TABLE orders (id INT, qty BIGINT);")
	pkg, err := Load(r1, r1.Size())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r2 := buildTestMpk(t, "CREATE TABLE orders (id INT, qty BIGINT, extra INT);")
	pkg2, err := Load(r2, r2.Size())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	db := txn.NewDatabase(snapshot.NewManager(), nil)
	engine := wasmrt.NewEngine()
	reg := NewRegistry()

	if err := reg.Register(pkg, db, engine); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(pkg2, db, engine); err == nil {
		t.Fatalf("expected error re-registering a same-named package with different DDL")
	}
}
