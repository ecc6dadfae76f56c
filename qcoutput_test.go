/*
 * qcoutput_test.go, part of goqchem.
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

package qchem

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestQCNormalTermination(Te *testing.T) {
	if !QCNormalTermination("test/opt.qout") {
		Te.Error("a normally-terminated output was not recognized")
	}
	if QCNormalTermination("test/optfail.qout") {
		Te.Error("a failed output passed as normally terminated")
	}
}

//TestQCOutputEnergy checks the final energy of a converged optimization,
//and that a failed job yields its energy together with a warning error.
func TestQCOutputEnergy(Te *testing.T) {
	energy, err := QCOutputEnergy("test/opt.qout")
	if err != nil {
		Te.Error(err)
	}
	want := -284.4310613041 * H2Kcal
	if math.Abs(energy-want) > 1e-4 {
		Te.Errorf("wrong energy: got %f want %f", energy, want)
	}
	fmt.Println("Final energy (kcal/mol):", energy)
	energy, err = QCOutputEnergy("test/optfail.qout")
	if err == nil {
		Te.Error("energy from a failed job should come with a warning")
	}
	if energy == 0 {
		Te.Error("the energy should still be recovered from a failed job")
	}
	//an output with no energy at all: the scan must stop at the top of
	//the file and say what is missing, not return a seek error
	_, err = QCOutputEnergy("test/scffail.qout")
	if err == nil || !strings.Contains(err.Error(), "does not contain energy") {
		Te.Errorf("missing energy badly reported: %v", err)
	}
}

func TestQCOutputSCFEnergies(Te *testing.T) {
	energies, err := QCOutputSCFEnergies("test/opt.qout")
	if err != nil {
		Te.Fatal(err)
	}
	if len(energies) != 6 {
		Te.Fatalf("expected 6 SCF cycles, got %d", len(energies))
	}
	if energies[0] != -284.2903618526 || energies[5] != -284.4310613041 {
		Te.Errorf("wrong SCF energies: %v", energies)
	}
}

//TestQCOutputLastGeometry checks that the geometry recovered is the last
//one printed, not the first.
func TestQCOutputLastGeometry(Te *testing.T) {
	geo, symbols, err := QCOutputLastGeometry("test/opt.qout")
	if err != nil {
		Te.Fatal(err)
	}
	if len(symbols) != 10 || geo.NVecs() != 10 {
		Te.Fatalf("expected 10 atoms, got %d symbols and %d rows", len(symbols), geo.NVecs())
	}
	if symbols[0] != "O" || symbols[9] != "H" {
		Te.Errorf("wrong symbols: %v", symbols)
	}
	if geo.At(0, 0) != -0.5755310000 {
		Te.Errorf("got the wrong geometry, x of the first atom is %f", geo.At(0, 0))
	}
}

func TestQCOutputFrequencies(Te *testing.T) {
	freqs, err := QCOutputFrequencies("test/freq.qout")
	if err != nil {
		Te.Fatal(err)
	}
	if len(freqs) != 3 {
		Te.Fatalf("expected 3 frequencies, got %d", len(freqs))
	}
	if freqs[0] != -153.21 || freqs[2] != 3704.11 {
		Te.Errorf("wrong frequencies: %v", freqs)
	}
	mode, err := QCOutputFirstImaginaryMode("test/freq.qout", 3)
	if err != nil {
		Te.Fatal(err)
	}
	if mode.At(0, 0) != 0.070 || mode.At(1, 0) != -0.555 || mode.At(2, 2) != 0.000 {
		Te.Errorf("wrong imaginary mode: %v", mode)
	}
	//an output with only real frequencies has no imaginary mode
	if _, err := QCOutputFirstImaginaryMode("test/opt.qout", 10); err == nil {
		Te.Error("an imaginary mode was found where there is none")
	}
}
