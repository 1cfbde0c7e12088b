package storage

import (
	"fmt"
	"strings"
	"testing"

	"github.com/san-kum/ecodash/internal/observe"
)

func TestBuildInserts(t *testing.T) {
	_, tbl := generate(t)

	batches := BuildInserts("run_1", tbl, 0)
	if len(batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(batches))
	}
	stmt, args := batches[0].Stmt, batches[0].Args

	// temperature plus two species per year
	rows := tbl.Len() * 3
	if len(args) != rows*4 || batches[0].Rows() != rows {
		t.Fatalf("expected %d args, got %d", rows*4, len(args))
	}
	if strings.Count(stmt, "($") != rows {
		t.Errorf("expected %d value groups in statement", rows)
	}
	if !strings.HasPrefix(stmt, "INSERT INTO observations (run_id, year, column_name, value) VALUES ($1, $2, $3, $4),") {
		t.Errorf("unexpected statement prefix: %.80s", stmt)
	}
	n := rows * 4
	last := fmt.Sprintf("($%d, $%d, $%d, $%d)", n-3, n-2, n-1, n)
	if !strings.HasSuffix(stmt, last) {
		t.Errorf("unexpected statement suffix: %s", stmt[len(stmt)-40:])
	}

	if args[0] != "run_1" || args[1] != 2000 || args[2] != "temperature_deviation" {
		t.Errorf("unexpected first row args: %v", args[:4])
	}
	if args[6] != "species A population" {
		t.Errorf("expected species A second, got %v", args[6])
	}
}

func TestBuildInserts_Chunked(t *testing.T) {
	_, tbl := generate(t)

	batches := BuildInserts("run_1", tbl, 10)
	total := tbl.Len() * 3
	want := (total + 9) / 10
	if len(batches) != want {
		t.Fatalf("expected %d batches, got %d", want, len(batches))
	}
	sum := 0
	for i, b := range batches {
		sum += b.Rows()
		if b.Rows() > 10 {
			t.Errorf("batch %d has %d rows", i, b.Rows())
		}
		// placeholders restart in every statement
		if !strings.Contains(b.Stmt, "VALUES ($1, $2, $3, $4)") {
			t.Errorf("batch %d does not start at $1", i)
		}
	}
	if sum != total {
		t.Errorf("expected %d rows over all batches, got %d", total, sum)
	}
}

func TestBuildInserts_ParameterLimit(t *testing.T) {
	p := observe.DefaultParams()
	p.StartYear, p.EndYear = 1, 6000
	tbl, err := observe.Generate(p, observe.NewSource(1))
	if err != nil {
		t.Fatal(err)
	}

	batches := BuildInserts("run_big", tbl, MaxBatchRows)
	if len(batches) < 2 {
		t.Fatalf("expected several batches, got %d", len(batches))
	}
	sum := 0
	for i, b := range batches {
		if len(b.Args) > 65535 {
			t.Errorf("batch %d binds %d parameters", i, len(b.Args))
		}
		sum += b.Rows()
	}
	if sum != 6000*3 {
		t.Errorf("expected %d rows, got %d", 6000*3, sum)
	}
}
