package sqlfront

import "testing"

func TestClassifyRecognizedVerbs(t *testing.T) {
	cases := map[string]Verb{
		"SELECT * FROM orders":              Select,
		"insert into orders values (1)":     Insert,
		"UPDATE orders SET status = 'done'": Update,
		"DELETE FROM orders WHERE id = 1":   Delete,
		"CREATE TABLE orders (id INT)":       CreateTable,
		"COPY orders FROM '/tmp/x.csv'":      Copy,
	}
	for text, want := range cases {
		stmt, err := Classify(text)
		if err != nil {
			t.Fatalf("Classify(%q): %v", text, err)
		}
		if stmt.Verb != want {
			t.Fatalf("Classify(%q).Verb = %v, want %v", text, stmt.Verb, want)
		}
	}
}

func TestClassifyUnsupportedVerb(t *testing.T) {
	if _, err := Classify("VACUUM orders"); err == nil {
		t.Fatalf("expected error for unsupported statement")
	}
}

func TestClassifyTableNames(t *testing.T) {
	stmt, err := Classify("SELECT * FROM orders")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if stmt.Table != "orders" {
		t.Fatalf("Table = %q, want orders", stmt.Table)
	}
}
