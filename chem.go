/*
 * chem.go, part of goqchem.
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
	"fmt"

	v3 "github.com/rmera/goqchem/v3"
)

/**Note: Several functions here panic instead of returning errors. This is because they are "fundamental"
 * functions. If something goes wrong here, the program is way-most likely wrong and should crash.
 * Most panics are related to using the function on a nil object or accessing out-of-bounds fields**/

//Atom contains the atom information read, except for the coordinates,
//which are in a separate matrix.
type Atom struct {
	Name   string
	Id     int
	Tag    int //for anything the user wants to keep that is not a float
	Mass   float64
	Charge float64 //partial charge, not to be confused with the total charge of the topology
	Symbol string
}

//Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	Newat := new(Atom)
	*Newat = *A
	return Newat
}

/*****Topology type***/

//Topology contains information about a molecule which is not expected to change in time
//(i.e. everything except for coordinates).
type Topology struct {
	Atoms  []*Atom
	charge int
	multi  int
}

//NewTopology makes a topology with ats atoms, charge charge and multiplicity multi, and returns it.
//It returns error if the atom slice is nil. It doesn't check for consistency of the
//charge or multiplicity with the atoms.
func NewTopology(ats []*Atom, charge, multi int) (*Topology, error) {
	if ats == nil {
		return nil, fmt.Errorf("Supplied a nil atom slice")
	}
	top := new(Topology)
	top.Atoms = ats
	top.charge = charge
	top.multi = multi
	return top, nil
}

/*Topology methods*/

//Charge gets the total charge of the topology
func (T *Topology) Charge() int {
	return T.charge
}

//Multi gets the spin multiplicity of the topology
func (T *Topology) Multi() int {
	return T.multi
}

//SetCharge sets the total charge of the topology to i
func (T *Topology) SetCharge(i int) {
	T.charge = i
}

//SetMulti sets the spin multiplicity of the topology to i
func (T *Topology) SetMulti(i int) {
	T.multi = i
}

//Atom returns the Atom corresponding to the index i of the Atom slice
//in the Topology. Panics if out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() {
		panic("Topology: Requested Atom out of bounds")
	}
	return T.Atoms[i]
}

//SetAtom sets the (i+1)th Atom of the topology to at. Panics if out of range.
func (T *Topology) SetAtom(i int, at *Atom) {
	if i >= T.Len() {
		panic("Topology: Tried to set Atom out of bounds")
	}
	T.Atoms[i] = at
}

//CopyAtoms returns a copy of the topology.
func (T *Topology) CopyAtoms() *Topology {
	Top := new(Topology)
	Top.Atoms = make([]*Atom, T.Len())
	for key, val := range T.Atoms {
		Top.Atoms[key] = val.Copy()
	}
	Top.charge = T.charge
	Top.multi = T.multi
	return Top
}

//SomeAtoms returns a topology with the atoms of T in the positions given
//by atomlist, in order. Changes to these atoms affect the original topology.
//The charge and multiplicity of the returned topology are just those of the
//parent and are not guaranteed to be correct.
func (T *Topology) SomeAtoms(atomlist []int) (*Topology, error) {
	var ret []*Atom
	lenatoms := len(T.Atoms)
	for k, j := range atomlist {
		if j > lenatoms-1 {
			return nil, fmt.Errorf("Atom requested (Number: %d, value: %d) out of range", k, j)
		}
		ret = append(ret, T.Atoms[j])
	}
	return NewTopology(ret, T.Charge(), T.Multi())
}

//Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

//Masses returns a slice with the masses of the atoms in the topology,
//and an error if one or more masses are missing.
func (T *Topology) Masses() ([]float64, error) {
	mass := make([]float64, T.Len())
	for i := 0; i < T.Len(); i++ {
		thisatom := T.Atom(i)
		if thisatom.Mass == 0 {
			return nil, fmt.Errorf("Not all the masses have been obtained: %d %v", i, thisatom)
		}
		mass[i] = thisatom.Mass
	}
	return mass, nil
}

/**Type Molecule**/

//Molecule contains all the info for a molecule in many states. The info
//that is expected to change between states, the coordinates, is stored
//separately from the atomic info, one v3.Matrix per state.
type Molecule struct {
	*Topology
	Coords []*v3.Matrix
}

//NewMolecule makes a molecule from the given topology and coordinates,
//and returns it. It checks that the number of coordinates in every frame
//matches the number of atoms.
func NewMolecule(ats *Topology, coords []*v3.Matrix) (*Molecule, error) {
	if ats == nil {
		return nil, fmt.Errorf("Supplied a nil topology")
	}
	if coords == nil {
		return nil, fmt.Errorf("Supplied a nil coords slice")
	}
	mol := new(Molecule)
	mol.Topology = ats
	mol.Coords = coords
	if err := mol.Corrupted(); err != nil {
		return nil, err
	}
	return mol, nil
}

//The molecule methods:

//Copy returns a copy of the molecule, including coordinates.
func (M *Molecule) Copy() *Molecule {
	if err := M.Corrupted(); err != nil {
		panic(err.Error())
	}
	mol := new(Molecule)
	mol.Topology = M.CopyAtoms()
	mol.Coords = make([]*v3.Matrix, 0, len(M.Coords))
	for _, val := range M.Coords {
		mol.Coords = append(mol.Coords, val.Copy())
	}
	return mol
}

//AddFrame takes a matrix of coordinates and appends it at the end of Coords.
//It checks that the number of coordinates matches the number of atoms.
func (M *Molecule) AddFrame(newframe *v3.Matrix) {
	if newframe == nil {
		panic("Attempted to add nil frame")
	}
	if M.Len() != newframe.NVecs() {
		panic(fmt.Sprintf("Wrong number of coordinates (%d)", newframe.NVecs()))
	}
	if M.Coords == nil {
		M.Coords = make([]*v3.Matrix, 0, 1)
	}
	M.Coords = append(M.Coords, newframe)
}

//Corrupted checks whether the molecule is corrupted, i.e. the
//coordinates don't match the number of atoms.
func (M *Molecule) Corrupted() error {
	for i := range M.Coords {
		if M.Len() != M.Coords[i].NVecs() {
			return fmt.Errorf("Inconsistent coordinates/atoms in frame %d: Atoms %d, coords: %d", i, M.Len(), M.Coords[i].NVecs())
		}
	}
	return nil
}

//LenFrames returns the number of frames in the molecule
func (M *Molecule) LenFrames() int {
	return len(M.Coords)
}
