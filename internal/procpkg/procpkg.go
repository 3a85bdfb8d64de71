// Package procpkg implements MuduDB's procedure package format and module
// registry (C12): extracting a .mpk archive (a ZIP file carrying a config,
// a package descriptor, DDL/init SQL scripts, and one or more WASM blobs),
// compiling its modules, running its DDL, and registering its procedures
// process-globally, grounded on
// original_source/mudu_contract/src/procedure/package_desc.rs for the
// descriptor shape and §4.10's four-step install sequence.
package procpkg

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/mududb/mududb/internal/kernel/errs"
	"github.com/mududb/mududb/internal/resultset"
	"github.com/mududb/mududb/internal/sqlfront"
	"github.com/mududb/mududb/internal/tuple"
	"github.com/mududb/mududb/internal/txn"
	"github.com/mududb/mududb/internal/typesys"
	"github.com/mududb/mududb/internal/wasmrt"
)

// ProcDesc describes one stored procedure exported by a package (§6):
// the module it belongs to and the name it is invoked as ("module.name",
// also the WASM export name, §8 scenario S6), its parameter and return
// shapes as a single composite TupleFieldDesc each (a record-typed field
// whose own Fields() give the positional parameter/return list), and
// whether it runs asynchronously.
type ProcDesc struct {
	Module     string                   `json:"module"`
	Name       string                   `json:"name"`
	ParamDesc  resultset.TupleFieldDesc `json:"param_desc"`
	ReturnDesc resultset.TupleFieldDesc `json:"return_desc"`
	IsAsync    bool                     `json:"is_async"`
}

// PackageDesc is the parsed package.desc.{toml,json} manifest (§6:
// "{modules: {name: [ProcDesc...]}}"). Only package.desc.json carries the
// full typed ParamDesc/ReturnDesc shape faithfully: go-toml/v2 has no
// generic way to round-trip a *typesys.DatType through TOML, so
// package.desc.toml is limited to the name/version fields and an install
// using it must fall back to empty descriptors for its procedures.
type PackageDesc struct {
	Name    string                `toml:"name" json:"name"`
	Version string                `toml:"version" json:"version"`
	Modules map[string][]ProcDesc `json:"modules"`
}

// PackageConfig is the parsed package.cfg.toml file.
type PackageConfig struct {
	Entrypoint string `toml:"entrypoint"`
}

// Package is one loaded .mpk archive: its manifest, DDL/init scripts, and
// the raw bytes of each WASM module it carries, keyed by basename (so a
// module named "m" is expected to ship as "m.wasm").
type Package struct {
	Config PackageConfig
	Desc   PackageDesc
	DDL    string
	InitDB string
	Wasm   map[string][]byte
}

// Load extracts a .mpk archive from r (total size, size in bytes).
func Load(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errs.Wrap(errs.DecodeErr, "open mpk archive", err)
	}

	pkg := &Package{Wasm: make(map[string][]byte)}
	var haveDesc bool

	for _, f := range zr.File {
		switch {
		case f.Name == "package.cfg.toml":
			data, err := readZipFile(f)
			if err != nil {
				return nil, err
			}
			if err := toml.Unmarshal(data, &pkg.Config); err != nil {
				return nil, errs.Wrap(errs.DecodeErr, "parse package.cfg.toml", err)
			}
		case f.Name == "package.desc.toml":
			data, err := readZipFile(f)
			if err != nil {
				return nil, err
			}
			if err := toml.Unmarshal(data, &pkg.Desc); err != nil {
				return nil, errs.Wrap(errs.DecodeErr, "parse package.desc.toml", err)
			}
			haveDesc = true
		case f.Name == "package.desc.json":
			data, err := readZipFile(f)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(data, &pkg.Desc); err != nil {
				return nil, errs.Wrap(errs.DecodeErr, "parse package.desc.json", err)
			}
			haveDesc = true
		case f.Name == "ddl.sql":
			data, err := readZipFile(f)
			if err != nil {
				return nil, err
			}
			pkg.DDL = string(data)
		case f.Name == "initdb.sql":
			data, err := readZipFile(f)
			if err != nil {
				return nil, err
			}
			pkg.InitDB = string(data)
		case len(f.Name) > 5 && f.Name[len(f.Name)-5:] == ".wasm":
			data, err := readZipFile(f)
			if err != nil {
				return nil, err
			}
			pkg.Wasm[f.Name] = data
		}
	}

	if !haveDesc {
		return nil, errs.New(errs.NoSuchElement, "mpk archive missing package.desc.{toml,json}")
	}
	if len(pkg.Wasm) == 0 {
		return nil, errs.New(errs.NoSuchElement, "mpk archive contains no wasm modules")
	}
	return pkg, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errs.Wrap(errs.IOErr, "open mpk entry "+f.Name, err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, errs.Wrap(errs.IOErr, "read mpk entry "+f.Name, err)
	}
	return buf.Bytes(), nil
}

// Procedure is the handle Lookup returns for invocation (§4.10 step 3): the
// package it came from, its descriptor, and the cache key its module was
// compiled under in the shared wasmrt.Engine. Compilation already happened
// at install time (step 2), so invoking this handle only pays for
// instantiation, the "InstancePre" reuse §4.10 calls for.
type Procedure struct {
	Package  *Package
	Desc     ProcDesc
	CacheKey string
}

// Registry is the process-global module registry: every loaded package,
// keyed by package name, and a flat index of every procedure it exports,
// keyed by "module.name" (§8 scenario S6: a client "calls m.f(1, 2)").
type Registry struct {
	mu         sync.RWMutex
	packages   map[string]*Package
	procedures map[string]registeredProc
}

type registeredProc struct {
	pkg      string
	desc     ProcDesc
	cacheKey string
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{
		packages:   make(map[string]*Package),
		procedures: make(map[string]registeredProc),
	}
}

// Register runs the §4.10 install sequence for pkg: for each module's
// WASM blob, compile it through engine (building its InstancePre-
// equivalent); index every exported procedure; then apply the package's
// DDL against db. Installing the same package twice (same name, version,
// and DDL) is a no-op — it neither re-applies DDL nor duplicates procedure
// entries (§8.10). Installing a different package under an already-used
// name is a conflict error.
func (r *Registry) Register(pkg *Package, db *txn.Database, engine *wasmrt.Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.packages[pkg.Desc.Name]; exists {
		if existing.Desc.Version == pkg.Desc.Version && existing.DDL == pkg.DDL {
			return nil
		}
		return errs.New(errs.ExistingSuchElement, "package already registered with conflicting content: "+pkg.Desc.Name)
	}

	for moduleName, procs := range pkg.Desc.Modules {
		code, ok := pkg.Wasm[moduleName+".wasm"]
		if !ok {
			return errs.New(errs.NoSuchElement, "module "+moduleName+" has no matching .wasm blob")
		}
		cacheKey := pkg.Desc.Name + "/" + pkg.Desc.Version + "/" + moduleName
		if _, err := engine.Compile(cacheKey, code); err != nil {
			return err
		}
		for _, proc := range procs {
			key := moduleName + "." + proc.Name
			r.procedures[key] = registeredProc{pkg: pkg.Desc.Name, desc: proc, cacheKey: cacheKey}
		}
	}

	if err := applyDDL(db, pkg.DDL); err != nil {
		return err
	}

	r.packages[pkg.Desc.Name] = pkg
	return nil
}

// Lookup resolves "module.name" to its package and invocation handle.
func (r *Registry) Lookup(module, name string) (*Package, Procedure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rp, ok := r.procedures[module+"."+name]
	if !ok {
		return nil, Procedure{}, errs.New(errs.NoSuchElement, "no such procedure: "+module+"."+name)
	}
	pkg := r.packages[rp.pkg]
	return pkg, Procedure{Package: pkg, Desc: rp.desc, CacheKey: rp.cacheKey}, nil
}

// Packages returns every currently registered package, for iteration at
// startup (procedure warm-up calls and the loaded-package count).
func (r *Registry) Packages() []*Package {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Package, 0, len(r.packages))
	for _, p := range r.packages {
		out = append(out, p)
	}
	return out
}

// applyDDL runs pkg's ddl.sql against db (§4.10 step 4): each semicolon-
// separated statement is classified by sqlfront, and CREATE TABLE
// statements are compiled into a table from a minimal "name type[, name
// type...]" column list. Full SQL DDL grammar remains out of scope (§1
// non-goals); this covers exactly the subset a procedure package needs to
// stand up its own tables on install. Re-creating an existing table is
// treated as already applied, keeping install idempotent.
func applyDDL(db *txn.Database, ddl string) error {
	for _, raw := range strings.Split(ddl, ";") {
		stmtText := strings.TrimSpace(raw)
		if stmtText == "" {
			continue
		}
		stmt, err := sqlfront.Classify(stmtText)
		if err != nil {
			return err
		}
		if stmt.Verb != sqlfront.CreateTable {
			continue
		}
		rowDesc, err := parseColumnList(stmtText)
		if err != nil {
			return err
		}
		if err := db.CreateTable(stmt.Table, rowDesc); err != nil {
			if errs.CodeOf(err) == errs.ExistingSuchElement {
				continue
			}
			return err
		}
	}
	return nil
}

// parseColumnList extracts the "(name type, name type, ...)" column list
// from a CREATE TABLE statement and compiles it into a TupleBinaryDesc.
func parseColumnList(stmtText string) (*tuple.TupleBinaryDesc, error) {
	open := strings.IndexByte(stmtText, '(')
	shut := strings.LastIndexByte(stmtText, ')')
	if open < 0 || shut < open {
		return nil, errs.New(errs.ParseErr, "CREATE TABLE requires a parenthesized column list")
	}

	var fields []tuple.FieldDesc
	for _, col := range strings.Split(stmtText[open+1:shut], ",") {
		parts := strings.Fields(strings.TrimSpace(col))
		if len(parts) < 2 {
			return nil, errs.New(errs.ParseErr, "malformed column definition: "+col)
		}
		dt, err := sqlTypeToDatType(parts[1])
		if err != nil {
			return nil, err
		}
		fields = append(fields, tuple.FieldDesc{Name: parts[0], Type: dt})
	}
	if len(fields) == 0 {
		return nil, errs.New(errs.ParseErr, "CREATE TABLE requires at least one column")
	}
	return tuple.NewDesc(fields), nil
}

// sqlTypeToDatType maps the small set of SQL type keywords this minimal
// DDL subset recognizes onto MuduDB's closed type universe (§3).
func sqlTypeToDatType(sqlType string) (*typesys.DatType, error) {
	name := strings.ToUpper(sqlType)
	switch {
	case name == "INT" || name == "INTEGER":
		return typesys.NewScalar(typesys.I32), nil
	case name == "BIGINT":
		return typesys.NewScalar(typesys.I64), nil
	case name == "FLOAT" || name == "REAL":
		return typesys.NewScalar(typesys.F32), nil
	case name == "DOUBLE":
		return typesys.NewScalar(typesys.F64), nil
	case name == "BLOB" || name == "BYTEA":
		return typesys.NewScalar(typesys.Binary), nil
	case strings.HasPrefix(name, "TEXT") || strings.HasPrefix(name, "VARCHAR"):
		maxLen := 0
		if paren := strings.IndexByte(sqlType, '('); paren >= 0 {
			if n, err := strconv.Atoi(strings.TrimRight(sqlType[paren+1:], ")")); err == nil {
				maxLen = n
			}
		}
		return typesys.NewStringType(maxLen), nil
	default:
		return nil, errs.New(errs.TypeErr, "unrecognized column type: "+sqlType)
	}
}
