package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/fumin/condmat/band"
	"github.com/fumin/condmat/fese"
	"github.com/fumin/condmat/hubbard"
	"github.com/fumin/condmat/store"
	"github.com/fumin/condmat/tbg"
)

const (
	fnameDB = "results.db"
)

var (
	runDir    = flag.String("d", filepath.Join("runs", "condmat"), "run directory")
	model     = flag.String("model", "tbg", "tbg, hubbard or fese")
	realistic = flag.Bool("realistic", true, "use the experimentally fitted TBG parameters")
	theta     = flag.Float64("theta", 0, "print the TBG bands at this twist angle in degrees instead of scanning angles")
	workers   = flag.Int("workers", 4, "number of angles evaluated concurrently")
	sites     = flag.Int("L", 6, "Hubbard chain length")
	periodic  = flag.Bool("periodic", true, "periodic Hubbard chain")
	params    = flag.String("params", "", "FeSe parameter file, the built-in parameters if empty")
	filling   = flag.Float64("filling", 6, "FeSe electrons per Fe, 0 to keep the chemical potential of the parameter file")
	samples   = flag.Int("samples", 50, "k-points per path segment")
)

func tbgScan(db *store.DB) error {
	p := tbg.Preset(*realistic)
	key := fmt.Sprintf("tbg scan realistic=%v shells=%g samples=%d", *realistic, p.Shells, p.Samples)
	res, ok, err := db.Scan(key)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if !ok {
		res, err = tbg.Scan(tbg.DefaultScanAngles(), p, tbg.NewScanOptions().Workers(*workers))
		if err != nil {
			return errors.Wrap(err, "")
		}
		if err := db.PutScan(key, res); err != nil {
			return errors.Wrap(err, "")
		}
	}
	log.Printf("magic angle %f bandwidth %f meV", res.MagicAngle, res.MinBandwidth*1e3)

	fmt.Printf("theta,bandwidth\n")
	for i, a := range res.Angles {
		fmt.Printf("%f,%g\n", a, res.Bandwidths[i])
	}
	return nil
}

func tbgBands(db *store.DB) error {
	p := tbg.Preset(*realistic)
	key := fmt.Sprintf("tbg bands theta=%g realistic=%v shells=%g samples=%d", *theta, *realistic, p.Shells, *samples)
	st, ok, err := db.Structure(key)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if !ok {
		st, err = tbg.CalculateBandStructure(*theta, *samples, p)
		if err != nil {
			return errors.Wrap(err, "")
		}
		if err := db.PutStructure(key, st); err != nil {
			return errors.Wrap(err, "")
		}
	}
	m, err := tbg.NewModel(*theta, p)
	if err != nil {
		return errors.Wrap(err, "")
	}
	lo, hi := m.FlatBands()
	log.Printf("theta %f dimension %d flat band width %f meV", *theta, m.Dim(), st.Width(lo, hi)*1e3)

	// Flat bands and their two neighbors on each side.
	printStructure(st, max(0, lo-2), min(st.NumBands(), hi+3))
	return nil
}

func hubbardPairing(db *store.DB) error {
	us := floats.Span(make([]float64, 9), -4, 4)
	key := fmt.Sprintf("hubbard L=%d periodic=%v", *sites, *periodic)
	_, spair, ok, err := db.Series(key + " spair")
	if err != nil {
		return errors.Wrap(err, "")
	}
	_, energies, okE, err := db.Series(key + " energy")
	if err != nil {
		return errors.Wrap(err, "")
	}
	if !ok || !okE {
		spair, energies = make([]float64, 0, len(us)), make([]float64, 0, len(us))
		for _, u := range us {
			p := hubbard.DefaultParams(*sites)
			p.U, p.Periodic = u, *periodic
			h, err := hubbard.NewHamiltonian(p)
			if err != nil {
				return errors.Wrap(err, "")
			}
			g, err := h.GroundState()
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("U %f", u))
			}
			s := g.PairStructureFactor()
			spair, energies = append(spair, s), append(energies, g.Energy)
			log.Printf("U %+.2f E0 %.4f S_pair(0) %.4f spin %s", u, g.Energy, s, formatFloats(g.SpinCorrelations()))
		}
		if err := db.PutSeries(key+" spair", us, spair); err != nil {
			return errors.Wrap(err, "")
		}
		if err := db.PutSeries(key+" energy", us, energies); err != nil {
			return errors.Wrap(err, "")
		}
	}

	fmt.Printf("U,E0,S_pair\n")
	for i, u := range us {
		fmt.Printf("%f,%f,%f\n", u, energies[i], spair[i])
	}
	return nil
}

func feseBands(db *store.DB) error {
	p := fese.DefaultParams()
	if *params != "" {
		var err error
		p, err = fese.LoadParams(*params)
		if err != nil {
			return errors.Wrap(err, "")
		}
	}
	if *filling > 0 {
		mu, err := fese.ChemicalPotential(p, *filling, 64)
		if err != nil {
			return errors.Wrap(err, "")
		}
		p.Mu = mu
		log.Printf("filling %f chemical potential %f", *filling, mu)
	}

	b, err := p.Marshal()
	if err != nil {
		return errors.Wrap(err, "")
	}
	key := fmt.Sprintf("fese samples=%d %s", *samples, b)
	st, ok, err := db.Structure(key)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if !ok {
		st, err = fese.BandStructure(p, *samples)
		if err != nil {
			return errors.Wrap(err, "")
		}
		if err := db.PutStructure(key, st); err != nil {
			return errors.Wrap(err, "")
		}
	}
	for _, c := range band.FermiCrossings(st, 0) {
		log.Printf("band %d crosses the Fermi level at k (%f, %f)", c.Band, c.K[0], c.K[1])
	}

	printStructure(st, 0, st.NumBands())
	return nil
}

func printStructure(st band.Structure, lo, hi int) {
	labels := make(map[int]string)
	for _, l := range st.Path.Labels {
		labels[l.Index] = l.Name
	}

	header := []string{"k", "kx", "ky", "dist", "label"}
	for b := lo; b < hi; b++ {
		header = append(header, fmt.Sprintf("e%d", b))
	}
	fmt.Printf("%s\n", strings.Join(header, ","))
	for i, k := range st.Path.Points {
		row := []string{strconv.Itoa(i), fmt.Sprintf("%f", k[0]), fmt.Sprintf("%f", k[1]), fmt.Sprintf("%f", st.Path.Distance[i]), labels[i]}
		for _, e := range st.Energies[i][lo:hi] {
			row = append(row, fmt.Sprintf("%f", e))
		}
		fmt.Printf("%s\n", strings.Join(row, ","))
	}
}

func formatFloats(xs []float64) string {
	ss := make([]string, 0, len(xs))
	for _, x := range xs {
		ss = append(ss, fmt.Sprintf("%.4f", x))
	}
	return "[" + strings.Join(ss, " ") + "]"
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}
	db, err := store.Open(filepath.Join(*runDir, fnameDB))
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()

	switch *model {
	case "tbg":
		if *theta != 0 {
			return tbgBands(db)
		}
		return tbgScan(db)
	case "hubbard":
		return hubbardPairing(db)
	case "fese":
		return feseBands(db)
	default:
		return errors.Errorf("unknown model %q", *model)
	}
}
