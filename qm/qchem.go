/*
 * qchem.go, part of goqchem.
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

package qm

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	chem "github.com/rmera/goqchem"
	v3 "github.com/rmera/goqchem/v3"
)

//Note that the default method and basis are NOT considered part of the
//API, so they can always change.
type QChemHandle struct {
	defmethod string
	defbasis  string
	command   string
	inputname string
	nCPU      int
}

func NewQChemHandle() *QChemHandle {
	run := new(QChemHandle)
	run.SetDefaults()
	return run
}

//QChemHandle methods

//SetnCPU sets the number of CPU to be used
func (O *QChemHandle) SetnCPU(cpu int) {
	O.nCPU = cpu
}

//SetName sets the name of the job, which defines the input
//(name.qin) and output (name.qout) file names.
func (O *QChemHandle) SetName(name string) {
	O.inputname = name
}

//SetCommand sets the command to run the Q-Chem program.
func (O *QChemHandle) SetCommand(name string) {
	O.command = name
}

/*SetDefaults sets defaults for a Q-Chem calculation. Default is a
single-point at B3LYP/def2-SVP, with all the available CPU. The Q-Chem
command is set to $QC/bin/qchem if QC is defined, and to qchem
otherwise, so the shell finds it if it's in the PATH.*/
func (O *QChemHandle) SetDefaults() {
	O.defmethod = "B3LYP"
	O.defbasis = "def2-SVP"
	O.command = os.ExpandEnv("${QC}/bin/qchem")
	if O.command == "/bin/qchem" { //if QC was not defined
		O.command = "qchem"
	}
	O.nCPU = runtime.NumCPU()
}

//BuildInput builds an input for Q-Chem based on the data in atoms, coords
//and Q. Returns only error.
func (O *QChemHandle) BuildInput(coords *v3.Matrix, atoms chem.AtomMultiCharger, Q *Calc) error {
	if atoms == nil || coords == nil {
		return fmt.Errorf("Missing charges or coordinates")
	}
	if atoms.Multi() < 1 {
		return fmt.Errorf("Invalid multiplicity: %d", atoms.Multi())
	}
	if Q.Basis == "" {
		fmt.Fprintf(os.Stderr, "no basis set assigned for Q-Chem calculation, will use the default %s, \n", O.defbasis)
		Q.Basis = O.defbasis
	}
	if Q.Method == "" {
		fmt.Fprintf(os.Stderr, "no method assigned for Q-Chem calculation, will use the default %s, \n", O.defmethod)
		Q.Method = O.defmethod
	}
	input, err := chem.NewQCInput(coords, atoms)
	if err != nil {
		return err
	}
	jobtype := "sp"
	if Q.Optimize {
		jobtype = "opt"
	} else if Q.Frequencies {
		jobtype = "freq"
	}
	input.RemSet("jobtype", jobtype)
	input.RemSet("method", Q.Method)
	input.RemSet("basis", Q.Basis)
	if Q.Disperssion != "" {
		if disp, ok := qchemDisp[Q.Disperssion]; ok && disp != "" {
			input.RemSet("dft_d", disp)
		}
	}
	if grid, ok := qchemGrid[Q.Grid]; ok {
		input.RemSet("xc_grid", grid)
	}
	if conv, ok := qchemSCFTight[Q.SCFTightness]; ok {
		input.RemSet("scf_convergence", conv)
	}
	if Q.SCFConvHelp > 0 {
		input.RemSet("scf_algorithm", "diis_gdm")
		input.RemSet("max_scf_cycles", "200")
	}
	if Q.OldMO {
		input.RemSet("scf_guess", "read")
	} else if Q.Guess != "" {
		input.RemSet("scf_guess", Q.Guess)
	}
	if Q.Memory != 0 {
		input.RemSet("mem_total", strconv.Itoa(Q.Memory))
	}
	if Q.Solvent != "" {
		model := Q.SolventModel
		if model == "" {
			model = "smd"
		}
		input.RemSet("solvent_method", model)
		if strings.EqualFold(model, "smd") {
			input.SmxSet("solvent", Q.Solvent)
		}
	} else if Q.Dielectric > 0 {
		input.RemSet("solvent_method", "cosmo")
		input.RemSet("solvent_dielectric", fmt.Sprintf("%4.1f", Q.Dielectric))
	}
	//The raw directive lines go in as they come.
	for _, line := range Q.Others {
		idx := strings.Index(line, "=")
		if idx <= 0 || idx == len(line)-1 {
			fmt.Fprintf(os.Stderr, "ignoring ill-formed extra directive: %s\n", line)
			continue
		}
		input.RemSet(strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]))
	}
	if O.inputname == "" {
		O.inputname = Q.Job
	}
	if O.inputname == "" {
		O.inputname = "goqchem"
	}
	return chem.QCInputWrite(fmt.Sprintf("%s.qin", O.inputname), input)
}

//Run runs the command given by the string O.command
//it waits or not for the result depending on wait.
//Not waiting for results works
//only for unix-compatible systems, as it uses bash and nohup.
func (O *QChemHandle) Run(wait bool) (err error) {
	if os.Getenv("QCSCRATCH") == "" {
		//Q-Chem refuses to run without a scratch directory.
		wd, _ := os.Getwd()
		os.Setenv("QCSCRATCH", wd)
	}
	inp := fmt.Sprintf("%s.qin", O.inputname)
	out := fmt.Sprintf("%s.qout", O.inputname)
	if wait == true {
		log, err := os.Create(fmt.Sprintf("%s.qlog", O.inputname))
		if err != nil {
			return err
		}
		defer log.Close()
		command := exec.Command(O.command, "-nt", strconv.Itoa(O.nCPU), inp, out)
		command.Stdout = log
		command.Stderr = log
		err = command.Run()
		return err
	}
	command := exec.Command("sh", "-c", "nohup "+O.command+fmt.Sprintf(" -nt %d %s %s > %s.qlog &", O.nCPU, inp, out, O.inputname))
	err = command.Start()
	return err
}

//Energy gets the energy of a previous Q-Chem calculation, in kcal/mol.
//Returns error if problem, and also if the energy returned is the product
//of an abnormally-terminated calculation (in this case the error is
//"Probable problem in calculation").
func (O *QChemHandle) Energy() (float64, error) {
	return chem.QCOutputEnergy(fmt.Sprintf("%s.qout", O.inputname))
}

/*OptimizedGeometry reads the latest geometry from a Q-Chem optimization.
Returns the geometry or error. Returns the geometry AND error if the
geometry read is not the product of a correctly ended calculation. In
this case the error is "Probable problem in calculation"*/
func (O *QChemHandle) OptimizedGeometry(atoms chem.Atomer) (*v3.Matrix, error) {
	var err error
	outname := fmt.Sprintf("%s.qout", O.inputname)
	if trust := chem.QCNormalTermination(outname); !trust {
		err = fmt.Errorf("Probable problem in calculation")
	}
	geo, symbols, err1 := chem.QCOutputLastGeometry(outname)
	if err1 != nil {
		return nil, err1
	}
	if atoms != nil && len(symbols) != atoms.Len() {
		return nil, fmt.Errorf("Geometry read does not match the given atoms: %d vs %d", len(symbols), atoms.Len())
	}
	return geo, err
}

var qchemDisp = map[string]string{
	"nodisp": "",
	"D2":     "EMPIRICAL_GRIMME",
	"D3":     "D3_ZERO",
	"D3ZERO": "D3_ZERO",
	"D3Zero": "D3_ZERO",
	"D3zero": "D3_ZERO",
	"D3BJ":   "D3_BJ",
	"D3bj":   "D3_BJ",
	"D3M":    "D3_ZEROM",
}

//scf_convergence takes the exponent: 10^-n on the DIIS error.
var qchemSCFTight = map[int]string{
	1: "8",
	2: "9",
}

var qchemGrid = map[int]string{
	1: "SG-1",
	2: "SG-2",
	3: "SG-3",
}
