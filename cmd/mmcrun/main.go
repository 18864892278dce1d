// Command mmcrun drives a single Magnetic Monte Carlo run from a neighbor
// list read off disk and prints the resulting observables.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/fumin/mmc/internal/throttle"
	"github.com/fumin/mmc/internal/topology"

	"github.com/fumin/mmc"
)

var (
	edgesPath   = flag.String("edges", "", "CSV file of i,j,J Heisenberg bonds")
	n           = flag.Int("n", 0, "number of lattice sites; required if -edges is empty")
	landauA     = flag.Float64("landau_a", 0, "Landau coefficient a")
	landauN     = flag.Int("landau_n", 0, "Landau exponent n (2, 4, 6, 8 or 10); 0 disables the term")
	lambda      = flag.Float64("lambda", 0, "thermodynamic integration mixing fraction, in [0, 1]")
	temperature = flag.Float64("temperature", 1, "temperature, k_B = 1")
	iterations  = flag.Float64("iterations", 1000, "number of sweeps")
	seed        = flag.Uint64("seed", 0x5eed, "random seed")
	metaRange   = flag.Float64("meta_range", 0, "enable metadynamics over [-meta_range, +meta_range]; 0 disables it")
	spinDynam   = flag.Bool("spin_dynamics", false, "interleave deterministic precession between sweeps")
)

// readEdges parses a CSV of i,j,J rows, one Heisenberg bond per row, into
// parallel arrays.
func readEdges(path string) (i, j []int, J []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "")
	}
	defer f.Close()

	r := csv.NewReader(f)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "")
		}
		if len(record) != 3 {
			return nil, nil, nil, errors.Errorf("want 3 columns, got %d: %#v", len(record), record)
		}

		ii, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, fmt.Sprintf("%#v", record))
		}
		jj, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, fmt.Sprintf("%#v", record))
		}
		jVal, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, fmt.Sprintf("%#v", record))
		}

		i = append(i, ii)
		j = append(j, jj)
		J = append(J, jVal)
	}
	return i, j, J, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	numSites := *n
	var entries []topology.Entry
	if *edgesPath != "" {
		i, j, J, err := readEdges(*edgesPath)
		if err != nil {
			return errors.Wrap(err, "")
		}
		for k := range i {
			entries = append(entries, topology.Entry{I: i[k], J: j[k], Val: J[k]})
			if i[k]+1 > numSites {
				numSites = i[k] + 1
			}
			if j[k]+1 > numSites {
				numSites = j[k] + 1
			}
		}
	}
	if numSites <= 0 {
		return errors.New("must supply -n or -edges")
	}

	eng, err := mmc.NewSeeded(numSites, *seed)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if entries != nil {
		if err := eng.SetHeisenbergCoeffCOO(entries, 0); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if *landauN != 0 {
		if err := eng.SetLandauCoeff(*landauA, *landauN, 0); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if *lambda != 0 {
		if err := eng.SetLambda(*lambda); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if *metaRange != 0 {
		if err := eng.SetMetadynamics(*metaRange, 0, 0, 0); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if *spinDynam {
		eng.SwitchSpinDynamics()
	}

	const chunk = 100
	progress := throttle.New(5 * time.Second)
	remaining := *iterations
	for remaining > 0 {
		step := math.Min(remaining, chunk)
		if err := eng.Run(*temperature, step); err != nil {
			return errors.Wrap(err, "")
		}
		remaining -= step
		if progress.Ok() {
			log.Printf("ran %.0f of %.0f sweeps", *iterations-remaining, *iterations)
		}
	}

	energy, err := eng.GetEnergy(0)
	if err != nil {
		return errors.Wrap(err, "")
	}
	variance, err := eng.GetEnergyVariance(0)
	if err != nil {
		return errors.Wrap(err, "")
	}
	acceptance, err := eng.GetAcceptanceRatio()
	if err != nil {
		return errors.Wrap(err, "")
	}
	magnetization, err := eng.GetMagnetization()
	if err != nil {
		return errors.Wrap(err, "")
	}

	fmt.Printf("energy,energy_variance,acceptance_ratio,final_magnetization\n")
	fmt.Printf("%f,%f,%f,%f\n", energy, variance, acceptance, magnetization[len(magnetization)-1])
	return nil
}
