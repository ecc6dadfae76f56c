/*
 * xyz.go, part of goqchem.
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
	"os"
	"strconv"
	"strings"

	v3 "github.com/rmera/goqchem/v3"
)

//XYZRead reads an xyz file and returns a Molecule with one frame of
//coordinates. The charge and multiplicity of the molecule are set to
//0 and 1, the caller should fix them if needed.
func XYZRead(name string) (*Molecule, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	xyz := bufio.NewReader(f)
	line, err := xyz.ReadString('\n')
	if err != nil {
		return nil, InputError{"Ill-formed XYZ file: " + err.Error(), name, 1, nil, true}
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return nil, InputError{"Ill-formed XYZ file: can't read the number of atoms", name, 1, nil, true}
	}
	if _, err := xyz.ReadString('\n'); err != nil { //the title line, which we don't use
		return nil, InputError{UnexpectedEOF, name, 2, nil, true}
	}
	ats := make([]*Atom, natoms)
	coords := make([]float64, natoms*3)
	for i := 0; i < natoms; i++ {
		line, err = xyz.ReadString('\n')
		if err != nil && !(err.Error() == "EOF" && i == natoms-1) {
			return nil, InputError{UnexpectedEOF, name, i + 3, nil, true}
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, InputError{fmt.Sprintf("Ill-formed atom line: %s", line), name, i + 3, nil, true}
		}
		ats[i] = new(Atom)
		ats[i].Symbol = fields[0]
		ats[i].Name = fields[0]
		ats[i].Id = i + 1
		ats[i].Mass = symbolMass[ats[i].Symbol]
		errs := make([]error, 3)
		coords[i*3], errs[0] = strconv.ParseFloat(fields[1], 64)
		coords[i*3+1], errs[1] = strconv.ParseFloat(fields[2], 64)
		coords[i*3+2], errs[2] = strconv.ParseFloat(fields[3], 64)
		for _, e := range errs {
			if e != nil {
				return nil, InputError{BadCoordinate + ": " + line, name, i + 3, nil, true}
			}
		}
	}
	top, err := NewTopology(ats, 0, 1)
	if err != nil {
		return nil, err
	}
	mcoords, err := v3.NewMatrix(coords)
	if err != nil {
		return nil, err
	}
	return NewMolecule(top, []*v3.Matrix{mcoords})
}

//XYZWrite writes the given atoms and coordinates in an XYZ file with the
//given name, which will be created. If the file exists it will be
//overwritten.
func XYZWrite(name string, coords *v3.Matrix, mol Atomer) error {
	if mol == nil || coords == nil {
		return fmt.Errorf("Missing atoms or coordinates")
	}
	if mol.Len() != coords.NVecs() {
		return fmt.Errorf("Coordinates do not match the atoms: %d vs %d", coords.NVecs(), mol.Len())
	}
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	defer out.Close()
	fmt.Fprintf(out, "%-4d\n\n", mol.Len())
	for i := 0; i < mol.Len(); i++ {
		_, err = fmt.Fprintf(out, "%-2s  %12.6f%12.6f%12.6f \n", mol.Atom(i).Symbol, coords.At(i, 0), coords.At(i, 1), coords.At(i, 2))
		if err != nil {
			return err
		}
	}
	return nil
}
