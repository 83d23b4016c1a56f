package import_pkg

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/entity-resolver/internal/normalize"
)

func TestReadCSVDefaultColumns(t *testing.T) {
	input := "\ufeffPartyId,PartyName,Address,Extra\n" +
		"14,Alpha Co,\"123 N Main St, Springfield, IL\",x\n" +
		"15,Alpha Company,\"123 North Main Street, Springfield, Illinois\",y\n" +
		"16,Short Row\n"

	got, err := NewImporter(Columns{}, nil).ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	want := []normalize.Record{
		{ID: "14", Name: "Alpha Co", Address: "123 N Main St, Springfield, IL"},
		{ID: "15", Name: "Alpha Company", Address: "123 North Main Street, Springfield, Illinois"},
		{ID: "16", Name: "Short Row", Address: ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadCSV() = %+v, want %+v", got, want)
	}
}

func TestReadCSVCustomColumns(t *testing.T) {
	input := "addr,id,company\n1 Elm St,a1,Beta\n"
	im := NewImporter(Columns{ID: "id", Name: "company", Address: "addr"}, nil)

	got, err := im.ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	want := []normalize.Record{{ID: "a1", Name: "Beta", Address: "1 Elm St"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadCSV() = %+v, want %+v", got, want)
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := NewImporter(Columns{}, nil).ReadCSV(strings.NewReader("PartyId,Name,Address\n1,a,b\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("ReadCSV() error = %v, want ErrMissingColumn", err)
	}
	if !strings.Contains(err.Error(), "PartyName") {
		t.Errorf("error %q does not name the missing column", err)
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := NewImporter(Columns{}, nil).ReadCSV(strings.NewReader("")); err == nil {
		t.Error("ReadCSV() on empty input succeeded, want error")
	}
}

func gzipLines(t *testing.T, lines ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	for _, l := range lines {
		if _, err := gz.Write([]byte(l + "\n")); err != nil {
			t.Fatalf("gzip write: %v", err)
		}
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestReadJSONLines(t *testing.T) {
	data := gzipLines(t,
		`{"business_id":"b1","name":"Joe's Diner","address":"10 Oak Ave","city":"Reno","state":"NV","postal_code":"89501","stars":4.5}`,
		``,
		`{"business_id":"b2","name":"No Zip","address":"1 Elm St","city":"Reno","state":"NV","postal_code":""}`,
		`{"business_id":"b3","name":"Cafe","address":"2 Pine Rd","city":"Tampa","state":"FL","postal_code":"33602"}`,
	)

	got, err := NewImporter(Columns{}, nil).ReadJSONLines(bytes.NewReader(data), true)
	if err != nil {
		t.Fatalf("ReadJSONLines() error = %v", err)
	}
	want := []normalize.Record{
		{ID: "b1", Name: "Joe's Diner", Address: "10 Oak Ave, Reno, NV 89501"},
		{ID: "b3", Name: "Cafe", Address: "2 Pine Rd, Tampa, FL 33602"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadJSONLines() = %+v, want %+v", got, want)
	}
}

func TestReadJSONLinesMalformed(t *testing.T) {
	_, err := NewImporter(Columns{}, nil).ReadJSONLines(strings.NewReader("{not json}\n"), false)
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("ReadJSONLines() error = %v, want a line 1 error", err)
	}
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parties.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"PartyId", "PartyName", "Address"},
		{14, "Alpha Co", "123 N Main St"},
		{15, "Alpha Company"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	got, err := NewImporter(Columns{}, nil).ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := []normalize.Record{
		{ID: "14", Name: "Alpha Co", Address: "123 N Main St"},
		{ID: "15", Name: "Alpha Company", Address: ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadFile(xlsx) = %+v, want %+v", got, want)
	}
}

func TestReadFileDispatch(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "sample.csv")
	if err := os.WriteFile(csvPath, []byte("PartyId,PartyName,Address\n1,Acme,1 Main St\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gzPath := filepath.Join(dir, "business.json.gz")
	line := `{"business_id":"b1","name":"Acme","address":"1 Main St","city":"Reno","state":"NV","postal_code":"89501"}`
	if err := os.WriteFile(gzPath, gzipLines(t, line), 0o644); err != nil {
		t.Fatal(err)
	}

	im := NewImporter(Columns{}, nil)
	for _, path := range []string{csvPath, gzPath} {
		got, err := im.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", path, err)
		}
		if len(got) != 1 || got[0].Name != "Acme" {
			t.Errorf("ReadFile(%s) = %+v, want one Acme record", path, got)
		}
	}

	if _, err := im.ReadFile(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("ReadFile() on missing file succeeded, want error")
	}
}

func TestReadPairs(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "ambiguous.json")
	content := `[{"record_1":{"id":"1","name":"A","address":"x"},"record_2":{"id":"2","name":"B","address":"y"},"score":0.7}]`
	if err := os.WriteFile(good, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	pairs, err := ReadPairs(good)
	if err != nil {
		t.Fatalf("ReadPairs() error = %v", err)
	}
	if len(pairs) != 1 || pairs[0].Record1.ID != "1" || pairs[0].Record2.Name != "B" || pairs[0].Score != 0.7 {
		t.Errorf("ReadPairs() = %+v", pairs)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"score":7}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPairs(bad); err == nil {
		t.Error("ReadPairs() accepted a score above 1")
	}
}
