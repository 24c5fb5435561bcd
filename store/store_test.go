package store

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/fumin/condmat/band"
	"github.com/fumin/condmat/tbg"
)

func TestStructure(t *testing.T) {
	t.Parallel()
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)
	dbPath := filepath.Join(dir, "results.db")

	path, err := band.NewPath([]band.Vertex{{Name: "G", K: [2]float64{0, 0}}, {Name: "X", K: [2]float64{1.0 / 3, 0}}, {Name: "G", K: [2]float64{0, 0}}}, 3)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	st := band.Structure{Path: path}
	for i := range path.Points {
		st.Energies = append(st.Energies, []float64{-1 - float64(i)/7, 0.1, 2.5e-9 * float64(i)})
	}

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if _, ok, err := db.Structure("a"); err != nil || ok {
		t.Fatalf("%v %+v", ok, err)
	}
	if err := db.PutStructure("a", band.Structure{Path: path, Energies: make([][]float64, len(path.Points))}); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := db.PutStructure("a", st); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("%+v", err)
	}

	// Results persist across connections.
	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer db.Close()
	got, ok, err := db.Structure("a")
	if err != nil || !ok {
		t.Fatalf("%v %+v", ok, err)
	}
	if !slices.Equal(got.Path.Points, st.Path.Points) || !slices.Equal(got.Path.Distance, st.Path.Distance) {
		t.Fatalf("%#v", got.Path)
	}
	if !slices.Equal(got.Path.Labels, st.Path.Labels) {
		t.Fatalf("%#v", got.Path.Labels)
	}
	for i, vals := range got.Energies {
		if !slices.Equal(vals, st.Energies[i]) {
			t.Fatalf("%d %v %v", i, vals, st.Energies[i])
		}
	}
}

func TestScanAndSeries(t *testing.T) {
	t.Parallel()
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)
	db, err := Open(filepath.Join(dir, "results.db"))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer db.Close()

	r := tbg.ScanResult{Angles: []float64{0.5, 1.05, 1.5}, Bandwidths: []float64{0.02, 0.003, 0.04}, MagicAngle: 1.05, MinBandwidth: 0.003}
	if err := db.PutScan("realistic", r); err != nil {
		t.Fatalf("%+v", err)
	}
	got, ok, err := db.Scan("realistic")
	if err != nil || !ok {
		t.Fatalf("%v %+v", ok, err)
	}
	if !slices.Equal(got.Angles, r.Angles) || !slices.Equal(got.Bandwidths, r.Bandwidths) || got.MagicAngle != r.MagicAngle || got.MinBandwidth != r.MinBandwidth {
		t.Fatalf("%#v", got)
	}
	if _, ok, err := db.Scan("simplified"); err != nil || ok {
		t.Fatalf("%v %+v", ok, err)
	}

	x, y := []float64{-4, 0, 4}, []float64{0.5, 0.25, 1.0 / 3}
	if err := db.PutSeries("spair", x, y); err != nil {
		t.Fatalf("%+v", err)
	}
	gx, gy, ok, err := db.Series("spair")
	if err != nil || !ok {
		t.Fatalf("%v %+v", ok, err)
	}
	if !slices.Equal(gx, x) || !slices.Equal(gy, y) {
		t.Fatalf("%v %v", gx, gy)
	}
	if _, _, ok, err := db.Series("none"); err != nil || ok {
		t.Fatalf("%v %+v", ok, err)
	}
	if err := db.PutSeries("bad", x, y[:1]); err == nil {
		t.Fatalf("expected error")
	}
}
