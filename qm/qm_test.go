/*
 * qm_test.go, part of goqchem.
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
 * */

package qm

import (
	"fmt"
	"os"
	"testing"

	chem "github.com/rmera/goqchem"
)

//TestQChemBuildInput builds an optimization input for a water molecule
//read from the test directory, and checks the directives written.
func TestQChemBuildInput(Te *testing.T) {
	mol, err := chem.XYZRead("../test/sample.xyz")
	if err != nil {
		Te.Fatal(err)
	}
	mol.SetCharge(0)
	mol.SetMulti(1)
	calc := new(Calc)
	calc.SetDefaults()
	calc.Method = "TPSSh"
	calc.Basis = "def2-TZVP"
	calc.Optimize = true
	calc.Solvent = "water"
	calc.Memory = 4000
	handle := NewQChemHandle()
	handle.SetName("../test/water")
	if err := handle.BuildInput(mol.Coords[0], mol, calc); err != nil {
		Te.Fatal(err)
	}
	Q, err := chem.QCInputRead("../test/water.qin")
	if err != nil {
		Te.Fatal(err)
	}
	if len(Q.Atoms) != 3 || Q.Charge != 0 || Q.Multi != 1 {
		Te.Errorf("wrong molecule block: %d atoms, charge %d, multiplicity %d", len(Q.Atoms), Q.Charge, Q.Multi)
	}
	for key, want := range map[string]string{
		"jobtype":        "opt",
		"method":         "TPSSh",
		"basis":          "def2-TZVP",
		"dft_d":          "D3_ZERO",
		"mem_total":      "4000",
		"solvent_method": "smd",
	} {
		if v, ok := Q.RemGet(key); !ok || v != want {
			Te.Errorf("rem %s: got %q %v, want %q", key, v, ok, want)
		}
	}
	if v, ok := Q.SmxGet("solvent"); !ok || v != "water" {
		Te.Errorf("smx solvent: got %q %v", v, ok)
	}
	fmt.Println("Q-Chem input built!")
}

//TestQChemBuildInputDefaults checks the fallbacks when no method or basis
//is given, and the dielectric-based solvent setup.
func TestQChemBuildInputDefaults(Te *testing.T) {
	mol, err := chem.XYZRead("../test/sample.xyz")
	if err != nil {
		Te.Fatal(err)
	}
	calc := new(Calc)
	calc.Dielectric = 37.5 //no solvent name, so cosmo is used
	handle := NewQChemHandle()
	handle.SetName("../test/waterdef")
	if err := handle.BuildInput(mol.Coords[0], mol, calc); err != nil {
		Te.Fatal(err)
	}
	Q, err := chem.QCInputRead("../test/waterdef.qin")
	if err != nil {
		Te.Fatal(err)
	}
	if v, _ := Q.RemGet("jobtype"); v != "sp" {
		Te.Errorf("default jobtype should be sp, got %q", v)
	}
	if v, _ := Q.RemGet("method"); v != "B3LYP" {
		Te.Errorf("default method should be B3LYP, got %q", v)
	}
	if v, _ := Q.RemGet("basis"); v != "def2-SVP" {
		Te.Errorf("default basis should be def2-SVP, got %q", v)
	}
	if v, _ := Q.RemGet("solvent_method"); v != "cosmo" {
		Te.Errorf("a bare dielectric should use cosmo, got %q", v)
	}
	if v, _ := Q.RemGet("solvent_dielectric"); v != "37.5" {
		Te.Errorf("wrong dielectric written: %q", v)
	}
	if len(Q.Smx) != 0 {
		Te.Error("cosmo should not produce an smx block")
	}
}

//TestQChemJobName checks that the Calc job name names the files when
//nothing was set on the handle.
func TestQChemJobName(Te *testing.T) {
	mol, err := chem.XYZRead("../test/sample.xyz")
	if err != nil {
		Te.Fatal(err)
	}
	calc := new(Calc)
	calc.Job = "../test/named"
	handle := NewQChemHandle()
	if err := handle.BuildInput(mol.Coords[0], mol, calc); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat("../test/named.qin"); err != nil {
		Te.Error("the job name from the settings was not used for the input file")
	}
	//an explicit name on the handle still wins
	handle2 := NewQChemHandle()
	handle2.SetName("../test/named2")
	if err := handle2.BuildInput(mol.Coords[0], mol, calc); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat("../test/named2.qin"); err != nil {
		Te.Error("the name set on the handle was not used for the input file")
	}
}

//TestQChemResults recovers the energy and geometry from the fixed outputs
//in the test directory.
func TestQChemResults(Te *testing.T) {
	handle := NewQChemHandle()
	handle.SetName("../test/opt")
	energy, err := handle.Energy()
	if err != nil {
		Te.Error(err)
	}
	if energy >= 0 {
		Te.Errorf("nonsensical energy: %f", energy)
	}
	mol, err := chem.QCInputRead("../test/mol.qin")
	if err != nil {
		Te.Fatal(err)
	}
	m, err := mol.Molecule()
	if err != nil {
		Te.Fatal(err)
	}
	geo, err := handle.OptimizedGeometry(m)
	if err != nil {
		Te.Error(err)
	}
	if geo.NVecs() != 10 {
		Te.Errorf("expected 10 atoms in the optimized geometry, got %d", geo.NVecs())
	}
}
