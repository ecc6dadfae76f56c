/*
 * qcinput.go, part of goqchem.
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
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	v3 "github.com/rmera/goqchem/v3"
)

//QCAtom is one line of the molecule block of a Q-Chem input: an element
//symbol plus Cartesian coordinates in angstroms.
type QCAtom struct {
	Symbol string
	Coords [3]float64
}

//Option is one key/value line of a directive ($rem or $smx) block.
//Values are kept as the literal text read, so they survive a round trip
//regardless of their type.
type Option struct {
	Key   string
	Value string
}

//QCInput represents a Q-Chem input file: a molecule block (total charge,
//spin multiplicity and atoms), a rem block with the calculation settings,
//and an optional smx block with solvent-model settings. The order of atoms
//and of the options in each block is preserved.
type QCInput struct {
	Charge int
	Multi  int
	Atoms  []*QCAtom
	//ReadGeom signals a "read" molecule block, i.e. the geometry comes
	//from the scratch files of a previous job and there are no atoms here.
	ReadGeom bool
	Rem      []*Option
	Smx      []*Option
}

//QCInputRead reads the Q-Chem input file with the given name.
func QCInputRead(name string) (*QCInput, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	Q, err := parseQCInput(f, name)
	if err != nil {
		return nil, errDecorate(err, "QCInputRead")
	}
	return Q, nil
}

//ParseQCInput reads a Q-Chem input from r.
func ParseQCInput(r io.Reader) (*QCInput, error) {
	Q, err := parseQCInput(r, "")
	if err != nil {
		return nil, errDecorate(err, "ParseQCInput")
	}
	return Q, nil
}

func parseQCInput(r io.Reader, name string) (*QCInput, error) {
	Q := new(QCInput)
	Q.Multi = 1
	scanner := bufio.NewScanner(r)
	nline := 0
	var err error
	for scanner.Scan() {
		nline++
		line := strings.TrimSpace(scanner.Text())
		if skippable(line) {
			continue
		}
		if !strings.HasPrefix(line, "$") {
			return nil, InputError{MalformedBlock + ": text outside any block", name, nline, nil, true}
		}
		marker := strings.ToLower(strings.TrimPrefix(line, "$"))
		switch marker {
		case "end":
			return nil, InputError{MalformedBlock + ": $end without an open block", name, nline, nil, true}
		case "molecule":
			nline, err = parseMoleculeBlock(scanner, Q, name, nline)
		case "rem":
			Q.Rem, nline, err = parseDirectiveBlock(scanner, name, nline, true)
		case "smx":
			Q.Smx, nline, err = parseDirectiveBlock(scanner, name, nline, false)
		default:
			return nil, InputError{UnknownBlock + ": $" + marker, name, nline, nil, true}
		}
		if err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, InputError{err.Error(), name, nline, nil, true}
	}
	return Q, nil
}

//skippable returns true for the lines that carry no information: blank
//lines and full-line comments.
func skippable(line string) bool {
	return line == "" || strings.HasPrefix(line, "!")
}

//blockEnd returns true if the line closes a block.
func blockEnd(line string) bool {
	return strings.EqualFold(line, "$end")
}

func parseMoleculeBlock(scanner *bufio.Scanner, Q *QCInput, name string, nline int) (int, error) {
	first := true
	for scanner.Scan() {
		nline++
		line := strings.TrimSpace(scanner.Text())
		if skippable(line) {
			continue
		}
		if blockEnd(line) {
			if first || (!Q.ReadGeom && len(Q.Atoms) == 0) {
				return nline, InputError{MalformedBlock + ": molecule block without atoms", name, nline, nil, true}
			}
			return nline, nil
		}
		if first {
			first = false
			if strings.EqualFold(line, "read") {
				Q.ReadGeom = true
				continue
			}
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return nline, InputError{BadChargeMulti + ": " + line, name, nline, nil, true}
			}
			var err1, err2 error
			Q.Charge, err1 = strconv.Atoi(fields[0])
			Q.Multi, err2 = strconv.Atoi(fields[1])
			if err1 != nil || err2 != nil {
				return nline, InputError{BadChargeMulti + ": " + line, name, nline, nil, true}
			}
			continue
		}
		if Q.ReadGeom {
			return nline, InputError{MalformedBlock + ": atoms in a \"read\" molecule block", name, nline, nil, true}
		}
		at, err := parseAtomLine(line, name, nline)
		if err != nil {
			return nline, err
		}
		Q.Atoms = append(Q.Atoms, at)
	}
	return nline, InputError{UnexpectedEOF + ": molecule block not closed", name, nline, nil, true}
}

func parseAtomLine(line, name string, nline int) (*QCAtom, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return nil, InputError{BadCoordinate + ": " + line, name, nline, nil, true}
	}
	at := new(QCAtom)
	at.Symbol = fields[0]
	if !KnownElement(at.Symbol) {
		return nil, InputError{UnknownElement + ": " + at.Symbol, name, nline, nil, true}
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, InputError{BadCoordinate + ": " + fields[i+1], name, nline, nil, true}
		}
		at.Coords[i] = v
	}
	return at, nil
}

//parseDirectiveBlock reads key/value lines until $end. In the rem block
//(eq==true) keys and values are separated by "=", in the smx block just
//by whitespace.
func parseDirectiveBlock(scanner *bufio.Scanner, name string, nline int, eq bool) ([]*Option, int, error) {
	var opts []*Option
	for scanner.Scan() {
		nline++
		line := strings.TrimSpace(scanner.Text())
		if skippable(line) {
			continue
		}
		if blockEnd(line) {
			return opts, nline, nil
		}
		var key, value string
		if eq {
			idx := strings.Index(line, "=")
			if idx < 0 {
				return nil, nline, InputError{BadDirective + ": " + line, name, nline, nil, true}
			}
			key = strings.TrimSpace(line[:idx])
			value = strings.TrimSpace(line[idx+1:])
		} else {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, nline, InputError{BadDirective + ": " + line, name, nline, nil, true}
			}
			key = fields[0]
			value = strings.Join(fields[1:], " ")
		}
		if key == "" || value == "" {
			return nil, nline, InputError{BadDirective + ": " + line, name, nline, nil, true}
		}
		opts = append(opts, &Option{Key: key, Value: value})
	}
	return nil, nline, InputError{UnexpectedEOF + ": directive block not closed", name, nline, nil, true}
}

//Write writes the input in Q-Chem format to w.
func (Q *QCInput) Write(w io.Writer) error {
	_, err := fmt.Fprint(w, "$molecule\n")
	//With this check it is assumed that the writer is ok.
	if err != nil {
		return err
	}
	if Q.ReadGeom {
		fmt.Fprint(w, " read\n")
	} else {
		fmt.Fprintf(w, " %d %d\n", Q.Charge, Q.Multi)
		for _, at := range Q.Atoms {
			fmt.Fprintf(w, " %-2s %15.10f %15.10f %15.10f\n", at.Symbol, at.Coords[0], at.Coords[1], at.Coords[2])
		}
	}
	fmt.Fprint(w, "$end\n")
	if len(Q.Rem) > 0 {
		fmt.Fprint(w, "\n$rem\n")
		for _, o := range Q.Rem {
			fmt.Fprintf(w, "   %s = %s\n", o.Key, o.Value)
		}
		fmt.Fprint(w, "$end\n")
	}
	if len(Q.Smx) > 0 {
		fmt.Fprint(w, "\n$smx\n")
		for _, o := range Q.Smx {
			fmt.Fprintf(w, "   %s %s\n", o.Key, o.Value)
		}
		fmt.Fprint(w, "$end\n")
	}
	return nil
}

//String returns the input in Q-Chem format.
func (Q *QCInput) String() string {
	var buf bytes.Buffer
	Q.Write(&buf) //writes to a buffer don't fail
	return buf.String()
}

//QCInputWrite writes the input Q to a file with the given name, which
//will be created. If the file exists it will be overwritten.
func QCInputWrite(name string, Q *QCInput) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return Q.Write(f)
}

//Option lookup. Keys are compared case-insensitively, as Q-Chem does,
//but stored literally.

func findOption(opts []*Option, key string) *Option {
	for _, o := range opts {
		if strings.EqualFold(o.Key, key) {
			return o
		}
	}
	return nil
}

func setOption(opts []*Option, key, value string) []*Option {
	if o := findOption(opts, key); o != nil {
		o.Value = value
		return opts
	}
	return append(opts, &Option{Key: key, Value: value})
}

//RemGet returns the literal value for the given rem key, and whether
//the key is present.
func (Q *QCInput) RemGet(key string) (string, bool) {
	o := findOption(Q.Rem, key)
	if o == nil {
		return "", false
	}
	return o.Value, true
}

//RemSet sets the value for the given rem key. If the key is already in the
//block its position is kept, otherwise the option is appended at the end.
func (Q *QCInput) RemSet(key, value string) {
	Q.Rem = setOption(Q.Rem, key, value)
}

//SmxGet returns the literal value for the given smx key, and whether
//the key is present.
func (Q *QCInput) SmxGet(key string) (string, bool) {
	o := findOption(Q.Smx, key)
	if o == nil {
		return "", false
	}
	return o.Value, true
}

//SmxSet sets the value for the given smx key, like RemSet does for rem.
func (Q *QCInput) SmxSet(key, value string) {
	Q.Smx = setOption(Q.Smx, key, value)
}

//RemInt returns the value for the given rem key parsed as an integer.
func (Q *QCInput) RemInt(key string) (int, error) {
	v, ok := Q.RemGet(key)
	if !ok {
		return 0, fmt.Errorf("rem key %s not present", key)
	}
	return strconv.Atoi(v)
}

//RemFloat returns the value for the given rem key parsed as a float64.
func (Q *QCInput) RemFloat(key string) (float64, error) {
	v, ok := Q.RemGet(key)
	if !ok {
		return 0, fmt.Errorf("rem key %s not present", key)
	}
	return strconv.ParseFloat(v, 64)
}

//RemBool returns the value for the given rem key parsed as a boolean.
//Q-Chem accepts true/false and 1/0 tokens.
func (Q *QCInput) RemBool(key string) (bool, error) {
	v, ok := Q.RemGet(key)
	if !ok {
		return false, fmt.Errorf("rem key %s not present", key)
	}
	switch strings.ToLower(v) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("rem key %s has non-boolean value %s", key, v)
}

//Molecule builds a Molecule from the molecule block of the input.
//It fails on a "read" geometry, which carries no atoms.
func (Q *QCInput) Molecule() (*Molecule, error) {
	if Q.ReadGeom || len(Q.Atoms) == 0 {
		return nil, fmt.Errorf("input contains no explicit geometry")
	}
	ats := make([]*Atom, 0, len(Q.Atoms))
	data := make([]float64, 0, 3*len(Q.Atoms))
	for i, qa := range Q.Atoms {
		at := new(Atom)
		at.Symbol = qa.Symbol
		at.Name = qa.Symbol
		at.Id = i + 1
		at.Mass = symbolMass[qa.Symbol]
		ats = append(ats, at)
		data = append(data, qa.Coords[0], qa.Coords[1], qa.Coords[2])
	}
	top, err := NewTopology(ats, Q.Charge, Q.Multi)
	if err != nil {
		return nil, err
	}
	coords, err := v3.NewMatrix(data)
	if err != nil {
		return nil, err
	}
	return NewMolecule(top, []*v3.Matrix{coords})
}

//NewQCInput builds a QCInput whose molecule block comes from the given
//coordinates and topology. The rem and smx blocks start empty.
func NewQCInput(coords *v3.Matrix, atoms AtomMultiCharger) (*QCInput, error) {
	if atoms == nil || coords == nil {
		return nil, fmt.Errorf("Missing charges or coordinates")
	}
	if coords.NVecs() != atoms.Len() {
		return nil, fmt.Errorf("Coordinates do not match the atoms: %d vs %d", coords.NVecs(), atoms.Len())
	}
	Q := new(QCInput)
	Q.Charge = atoms.Charge()
	Q.Multi = atoms.Multi()
	for i := 0; i < atoms.Len(); i++ {
		at := new(QCAtom)
		at.Symbol = atoms.Atom(i).Symbol
		at.Coords[0] = coords.At(i, 0)
		at.Coords[1] = coords.At(i, 1)
		at.Coords[2] = coords.At(i, 2)
		Q.Atoms = append(Q.Atoms, at)
	}
	return Q, nil
}

//SetGeometry replaces the coordinates in the molecule block with the ones
//given, which must match the number of atoms.
func (Q *QCInput) SetGeometry(coords *v3.Matrix) error {
	if coords == nil || coords.NVecs() != len(Q.Atoms) {
		return fmt.Errorf("Coordinates do not match the atoms in the input")
	}
	for i, at := range Q.Atoms {
		at.Coords[0] = coords.At(i, 0)
		at.Coords[1] = coords.At(i, 1)
		at.Coords[2] = coords.At(i, 2)
	}
	return nil
}
