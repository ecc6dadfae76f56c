/*
 * qm.go, part of goqchem.
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
	chem "github.com/rmera/goqchem"
	v3 "github.com/rmera/goqchem/v3"
)

//Handle is the interface for setting up and running QM calculations.
type Handle interface {

	//Sets the name for the job, used for input
	//and output files.
	SetName(name string)

	//BuildInput builds an input for the QM program based on the data in
	//atoms, coords and Q. Returns only error.
	BuildInput(coords *v3.Matrix, atoms chem.AtomMultiCharger, Q *Calc) error

	//Run runs the QM program for a calculation previously set.
	//it waits or not for the result depending on the value of
	//wait.
	Run(wait bool) (err error)

	//Energy gets the last energy for a calculation by parsing the
	//QM program's output file. Returns error if fail. Also returns
	//Error ("Probable problem in calculation")
	//if there is an energy but the calculation didn't end properly.
	Energy() (float64, error)

	//OptimizedGeometry reads the optimized geometry from a calculation
	//output. Returns error if fail. Returns Error ("Probable problem
	//in calculation") if there is a geometry but the calculation didn't
	//end properly.
	OptimizedGeometry(atoms chem.Atomer) (*v3.Matrix, error)
}

//Calc holds the settings for a calculation, independently of the
//mechanics of any particular run.
type Calc struct {
	Method       string
	Basis        string
	Optimize     bool
	Frequencies  bool
	Dielectric   float64
	Solvent      string //name of the solvent for continuum models
	SolventModel string //the implicit-solvent method, smd if empty and a solvent is given
	Disperssion  string //D2, D3, etc.
	Guess        string //initial guess
	OldMO        bool   //Try to reuse the MOs of a previous calculation
	Grid         int
	SCFTightness int
	SCFConvHelp  int
	Memory       int      //Max memory to be used in MB (the effect depends on the QM program)
	Others       []string //extra raw directive lines, passed through as they come
	Job          string   //name for the job files, used when none is set on the handle
}

//SetDefaults sets a few sensible defaults for a DFT calculation.
func (Q *Calc) SetDefaults() {
	Q.Disperssion = "D3"
	Q.SolventModel = "smd"
}
