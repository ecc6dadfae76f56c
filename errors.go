/*
 * errors.go, part of goqchem.
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

import "fmt"

//InputError is the error type for problems reading or writing Q-Chem
//input/output files. It implements the qchem.Error interface.
type InputError struct {
	message  string
	filename string //the file with problems, or empty string if none
	line     int    //the offending line, or 0 if not applicable
	deco     []string
	critical bool
}

func (err InputError) Error() string {
	if err.line > 0 {
		return fmt.Sprintf("file %s, line %d: %s", err.filename, err.line, err.message)
	}
	return fmt.Sprintf("file %s: %s", err.filename, err.message)
}

//Decorate adds new information to the error and returns the current
//decoration slice.
func (err InputError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//FileName returns the file associated to the error.
func (err InputError) FileName() string { return err.filename }

//Critical returns true if the error is critical, false otherwise.
func (err InputError) Critical() bool { return err.critical }

//errDecorate is a helper that asserts that the error implements
//qchem.Error and decorates it with the caller's name before returning it.
//It will panic if used with an error not implementing qchem.Error.
func errDecorate(err error, caller string) error {
	err2 := err.(Error)
	err2.Decorate(caller)
	return err2
}

//The taxonomy of problems a Q-Chem input file can have. A consumer can
//match these against the text of a returned error.
const (
	MalformedBlock = "Malformed block"
	UnknownBlock   = "Unknown block"
	BadCoordinate  = "Invalid atomic coordinate"
	BadChargeMulti = "Invalid charge/multiplicity line"
	BadDirective   = "Malformed directive line"
	UnknownElement = "Unknown element symbol"
	UnexpectedEOF  = "File ended inside a block"
)
