/*
 * qcoutput.go, part of goqchem.
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

package qchem

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	v3 "github.com/rmera/goqchem/v3"
)

//The markers Q-Chem prints in its output. Correctness here is purely
//textual, there is nothing better to hold on to.
const (
	qcEndMark    = "Thank you very much for using Q-Chem"
	qcEnergyMark = "Total energy in the final basis set"
	qcGeoMark    = "Standard Nuclear Orientation"
	qcSCFMark    = "Cycle       Energy"
	qcFreqMark   = "Frequency:"
)

//QCNormalTermination returns true if the Q-Chem output file with the
//given name corresponds to a normally terminated calculation.
func QCNormalTermination(name string) bool {
	const tail = 2048 //the end marker sits in the last few lines
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return false
	}
	size := info.Size()
	start := size - tail
	if start < 0 {
		start = 0
	}
	buf := make([]byte, size-start)
	if _, err := f.ReadAt(buf, start); err != nil {
		return false
	}
	return strings.Contains(string(buf), qcEndMark)
}

//Gets the previous line of the file f, leaving the position at the
//start of that line. It returns io.EOF at the beginning of the file.
func getTailLine(f *os.File) (line string, err error) {
	end, err := f.Seek(0, 1)
	if err != nil {
		return "", err
	}
	if end <= 0 {
		return "", io.EOF
	}
	buf := make([]byte, 1)
	var ini int64 = 0
	//walk back from the byte before the trailing newline
	for pos := end - 1; pos > 0; pos-- {
		if _, err := f.ReadAt(buf, pos-1); err != nil {
			return "", err
		}
		if buf[0] == byte('\n') {
			ini = pos
			break
		}
	}
	bufF := make([]byte, end-ini)
	if _, err := f.ReadAt(bufF, ini); err != nil && err != io.EOF {
		return "", err
	}
	if _, err := f.Seek(ini, 0); err != nil {
		return "", err
	}
	return string(bufF), nil
}

//QCOutputEnergy gets the final energy, in kcal/mol, from a Q-Chem output
//file. It returns an error if there is a problem, and also if the energy
//found is the product of an abnormally-terminated calculation (in this
//case the error is "Probable problem in calculation").
func QCOutputEnergy(name string) (float64, error) {
	err := fmt.Errorf("Probable problem in calculation")
	f, err1 := os.Open(name)
	if err1 != nil {
		return 0, err1
	}
	defer f.Close()
	f.Seek(0, 2) //We start at the end of the file
	energy := 0.0
	var found bool
	for {
		line, err1 := getTailLine(f)
		if err1 == io.EOF { //reached the beginning of the file
			break
		}
		if err1 != nil {
			return 0.0, err1
		}
		if strings.Contains(line, qcEndMark) {
			err = nil
		}
		if strings.Contains(line, qcEnergyMark) {
			splitted := strings.Fields(line)
			energy, err1 = strconv.ParseFloat(splitted[len(splitted)-1], 64)
			if err1 != nil {
				return 0.0, err1
			}
			found = true
			break
		}
	}
	if !found {
		return 0.0, fmt.Errorf("Output does not contain energy")
	}
	return energy * H2Kcal, err
}

//QCOutputSCFEnergies returns the energies, in Hartree, of every SCF cycle
//found in a Q-Chem output file, in order. For an optimization the cycles
//of all the steps are concatenated.
func QCOutputSCFEnergies(name string) ([]float64, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var energies []float64
	intable := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, qcSCFMark) {
			intable = true
			continue
		}
		if !intable {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 && strings.HasPrefix(fields[0], "---") {
			continue
		}
		if len(fields) < 2 {
			intable = false
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			intable = false
			continue
		}
		e, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			intable = false
			continue
		}
		energies = append(energies, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(energies) == 0 {
		return nil, fmt.Errorf("Output does not contain SCF cycles")
	}
	return energies, nil
}

//QCOutputLastGeometry returns the last geometry printed in a Q-Chem
//output file, in angstroms, together with the element symbols.
func QCOutputLastGeometry(name string) (*v3.Matrix, []string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	var coords []float64
	var symbols []string
	capture := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, qcGeoMark) {
			capture = true
			coords = nil
			symbols = nil
			continue
		}
		if !capture {
			continue
		}
		fields := strings.Fields(line)
		//the header and separator lines of the table
		if len(fields) > 0 && (strings.HasPrefix(fields[0], "---") || fields[0] == "I") {
			continue
		}
		if len(fields) != 5 {
			capture = false
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			capture = false
			continue
		}
		errs := make([]error, 3)
		var xyz [3]float64
		xyz[0], errs[0] = strconv.ParseFloat(fields[2], 64)
		xyz[1], errs[1] = strconv.ParseFloat(fields[3], 64)
		xyz[2], errs[2] = strconv.ParseFloat(fields[4], 64)
		for _, e := range errs {
			if e != nil {
				return nil, nil, fmt.Errorf("Ill-formed geometry line in %s: %s", name, line)
			}
		}
		symbols = append(symbols, fields[1])
		coords = append(coords, xyz[0], xyz[1], xyz[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(coords) == 0 {
		return nil, nil, fmt.Errorf("Output does not contain a geometry")
	}
	m, err := v3.NewMatrix(coords)
	if err != nil {
		return nil, nil, err
	}
	return m, symbols, nil
}

//QCOutputFrequencies returns every vibrational frequency, in 1/cm, found
//in a Q-Chem frequency-job output, in order. Imaginary frequencies are
//reported by Q-Chem as negative numbers.
func QCOutputFrequencies(name string) ([]float64, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var freqs []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, qcFreqMark) {
			continue
		}
		fields := strings.Fields(line)
		for _, v := range fields[1:] {
			fr, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("Ill-formed frequency line in %s: %s", name, line)
			}
			freqs = append(freqs, fr)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(freqs) == 0 {
		return nil, fmt.Errorf("Output does not contain frequencies")
	}
	return freqs, nil
}

//QCOutputFirstImaginaryMode returns the normal mode, as a displacement
//per atom, of the first imaginary frequency found in a Q-Chem
//frequency-job output. natoms is the number of atoms in the molecule.
//It returns an error if the output has no imaginary frequencies.
func QCOutputFirstImaginaryMode(name string, natoms int) (*v3.Matrix, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	wantmode := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, qcFreqMark) {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			fr, err := strconv.ParseFloat(fields[1], 64)
			if err == nil && fr < 0 {
				//The displacements for this mode are the first 3 columns
				//of the table that follows.
				wantmode = true
			}
			continue
		}
		if !wantmode {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "X" {
			continue
		}
		mode := v3.Zeros(natoms)
		for i := 0; i < natoms; i++ {
			if !scanner.Scan() {
				return nil, fmt.Errorf("Output ended inside a normal-mode table")
			}
			mfields := strings.Fields(scanner.Text())
			if len(mfields) < 4 {
				return nil, fmt.Errorf("Ill-formed normal-mode line: %s", scanner.Text())
			}
			for j := 0; j < 3; j++ {
				v, err := strconv.ParseFloat(mfields[j+1], 64)
				if err != nil {
					return nil, fmt.Errorf("Ill-formed normal-mode line: %s", scanner.Text())
				}
				mode.Set(i, j, v)
			}
		}
		return mode, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("Output does not contain imaginary frequencies")
}
