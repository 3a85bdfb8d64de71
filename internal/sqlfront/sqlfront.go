// Package sqlfront implements the minimal SQL recognition the wire
// frontend needs (§6): classify a statement's verb and target table,
// rejecting anything else with FEATURE_NOT_SUPPORTED. Full Postgres wire
// protocol framing is out of scope (§1 non-goals). This package only
// classifies; the session layer (internal/txn) calls it and does the
// routing itself.
package sqlfront

import (
	"strings"

	"github.com/mududb/mududb/internal/kernel/errs"
)

// Verb is the recognized statement kind.
type Verb int

const (
	Unsupported Verb = iota
	Select
	Insert
	Update
	Delete
	CreateTable
	Copy
)

func (v Verb) String() string {
	switch v {
	case Select:
		return "SELECT"
	case Insert:
		return "INSERT"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	case CreateTable:
		return "CREATE TABLE"
	case Copy:
		return "COPY"
	default:
		return "UNSUPPORTED"
	}
}

// Statement is a minimally classified SQL statement: its verb and the
// target table name, when the verb implies one.
type Statement struct {
	Verb  Verb
	Table string
	Text  string
}

// Classify identifies stmt's verb well enough to route it, without fully
// parsing its grammar (§6: "must parse ... minimally"). Unrecognized verbs
// return FEATURE_NOT_SUPPORTED via errs.NotImplemented.
func Classify(stmt string) (Statement, error) {
	trimmed := strings.TrimSpace(stmt)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return Statement{}, errs.New(errs.ParseErr, "empty statement")
	}

	upper := strings.ToUpper(fields[0])
	switch upper {
	case "SELECT":
		return Statement{Verb: Select, Table: tableAfter(fields, "FROM"), Text: trimmed}, nil
	case "INSERT":
		return Statement{Verb: Insert, Table: tableAfter(fields, "INTO"), Text: trimmed}, nil
	case "UPDATE":
		if len(fields) < 2 {
			return Statement{}, errs.New(errs.ParseErr, "UPDATE requires a table name")
		}
		return Statement{Verb: Update, Table: fields[1], Text: trimmed}, nil
	case "DELETE":
		return Statement{Verb: Delete, Table: tableAfter(fields, "FROM"), Text: trimmed}, nil
	case "CREATE":
		if len(fields) >= 2 && strings.ToUpper(fields[1]) == "TABLE" {
			name := ""
			if len(fields) >= 3 {
				name = fields[2]
			}
			return Statement{Verb: CreateTable, Table: name, Text: trimmed}, nil
		}
	case "COPY":
		return Statement{Verb: Copy, Table: tableAfter(fields, "COPY"), Text: trimmed}, nil
	}

	return Statement{}, errs.New(errs.NotImplemented, "unsupported SQL statement: "+upper)
}

// tableAfter returns the token immediately following the first case-
// insensitive occurrence of keyword in fields.
func tableAfter(fields []string, keyword string) string {
	for i, f := range fields {
		if strings.EqualFold(f, keyword) && i+1 < len(fields) {
			return strings.TrimSuffix(fields[i+1], "(")
		}
	}
	return ""
}
