/*
 * flatten.go, part of goqchem.
 *
 * Copyright 2023 Raul Mera <rmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 * goQChem is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

package run

import (
	"fmt"
	"log"

	chem "github.com/rmera/goqchem"
	v3 "github.com/rmera/goqchem/v3"
)

//OptFreqFlattener alternates geometry optimizations and frequency
//calculations until the structure has no imaginary frequencies. When a
//frequency job shows an imaginary mode, the geometry is perturbed along
//that mode and the optimization restarted from the perturbed structure.
type OptFreqFlattener struct {
	Runner          *Runner
	MaxIterations   int
	MaxPerturbScale float64 //largest displacement, in A, of any atom during a perturbation
}

//NewOptFreqFlattener returns a flattener using the given runner and the
//default limits: 10 opt/freq iterations, atoms displaced by at most
//0.3 A per perturbation.
func NewOptFreqFlattener(R *Runner) *OptFreqFlattener {
	F := new(OptFreqFlattener)
	F.Runner = R
	F.MaxIterations = 10
	F.MaxPerturbScale = 0.3
	return F
}

//Flatten runs the opt/freq loop for the input in F.Runner.InputFile,
//which must describe an optimization. It returns the number of
//iterations needed, or an error if a true minimum is not reached within
//MaxIterations.
func (F *OptFreqFlattener) Flatten() (int, error) {
	R := F.Runner
	gzip := R.GzipOutput
	R.GzipOutput = false //only the final outputs get compressed
	defer func() { R.GzipOutput = gzip }()
	Q, err := chem.QCInputRead(R.InputFile)
	if err != nil {
		return 0, err
	}
	if jt, _ := Q.RemGet("jobtype"); jt != "opt" {
		return 0, fmt.Errorf("Flatten needs an optimization input, got jobtype %q", jt)
	}
	for i := 1; i <= F.MaxIterations; i++ {
		if err := R.Run(); err != nil {
			return i, err
		}
		geo, _, err := chem.QCOutputLastGeometry(R.OutputFile)
		if err != nil {
			return i, err
		}
		if err := copyFile(R.OutputFile, fmt.Sprintf("%s.opt_%d", R.OutputFile, i)); err != nil {
			return i, err
		}
		//the runner's handlers write their corrections to the input
		//file, so it is re-read rather than rewritten from a stale copy
		Q, err = chem.QCInputRead(R.InputFile)
		if err != nil {
			return i, err
		}
		if err := Q.SetGeometry(geo); err != nil {
			return i, err
		}
		Q.RemSet("jobtype", "freq")
		if err := chem.QCInputWrite(R.InputFile, Q); err != nil {
			return i, err
		}
		if err := R.Run(); err != nil {
			return i, err
		}
		freqs, err := chem.QCOutputFrequencies(R.OutputFile)
		if err != nil {
			return i, err
		}
		if err := copyFile(R.OutputFile, fmt.Sprintf("%s.freq_%d", R.OutputFile, i)); err != nil {
			return i, err
		}
		if len(freqs) == 0 {
			return i, fmt.Errorf("No frequencies found in %s", R.OutputFile)
		}
		if freqs[0] >= 0 {
			if gzip {
				if err := GzipFile(R.OutputFile); err != nil {
					return i, err
				}
			}
			return i, nil
		}
		log.Printf("imaginary frequency %4.1f after iteration %d, perturbing and reoptimizing", freqs[0], i)
		mode, err := chem.QCOutputFirstImaginaryMode(R.OutputFile, len(Q.Atoms))
		if err != nil {
			return i, err
		}
		if err := F.perturb(geo, mode); err != nil {
			return i, err
		}
		Q, err = chem.QCInputRead(R.InputFile) //same: keep any correction
		if err != nil {
			return i, err
		}
		if err := Q.SetGeometry(geo); err != nil {
			return i, err
		}
		Q.RemSet("jobtype", "opt")
		if err := chem.QCInputWrite(R.InputFile, Q); err != nil {
			return i, err
		}
	}
	return F.MaxIterations, fmt.Errorf("Still not a minimum after %d opt/freq iterations", F.MaxIterations)
}

//perturb displaces geo along mode, scaled so the largest atomic
//displacement is MaxPerturbScale.
func (F *OptFreqFlattener) perturb(geo, mode *v3.Matrix) error {
	if geo.NVecs() != mode.NVecs() {
		return fmt.Errorf("Geometry and normal mode differ in size: %d vs %d", geo.NVecs(), mode.NVecs())
	}
	largest := mode.MaxVecNorm()
	if largest == 0 {
		return fmt.Errorf("The imaginary mode read is a zero vector")
	}
	disp := v3.Zeros(mode.NVecs())
	disp.Scale(F.MaxPerturbScale/largest, mode)
	geo.Add(geo, disp)
	return nil
}
