/*
 * doc.go, part of goqchem.
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

//Package qchem provides atom and molecule structures and facilities for
//reading, writing and round-tripping Q-Chem input files, together with
//functions to recover energies and geometries from Q-Chem output files.
//The subpackage qm builds inputs from calculation settings and runs the
//program; the subpackage run manages jobs (backups, error recovery and
//compression of results).
package qchem
