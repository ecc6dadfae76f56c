/*
 * gonum.go, part of goqchem.
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

package v3

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

//Matrix is a set of vectors in 3D space. The underlying implementation
//is a gonum mat.Dense with 3 columns.
type Matrix struct {
	*mat.Dense
}

//Matrix2Dense returns the underlying gonum Dense matrix of A.
func Matrix2Dense(A *Matrix) *mat.Dense {
	return A.Dense
}

//Dense2Matrix wraps a gonum Dense matrix into a Matrix. It panics if
//the matrix doesn't have exactly 3 columns.
func Dense2Matrix(A *mat.Dense) *Matrix {
	_, c := A.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return &Matrix{A}
}

//NewMatrix generates and returns a Matrix with 3 columns from data.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	rows := l / cols
	if l%cols != 0 {
		return nil, Error{fmt.Sprintf("Input slice length %d not divisible by %d", l, cols), []string{"NewMatrix"}, true}
	}
	r := mat.NewDense(rows, cols, data)
	return &Matrix{r}, nil
}

//Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	return &Matrix{mat.NewDense(vecs, 3, nil)}
}

//NVecs returns the number of vectors in the matrix.
func (F *Matrix) NVecs() int {
	r, _ := F.Dims()
	return r
}

//VecView returns a view of the ith vector of the matrix. Changes
//in the view are reflected in F and vice-versa.
func (F *Matrix) VecView(i int) *Matrix {
	r := F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)
	return &Matrix{r}
}

//View returns a view of F starting from i and spanning r rows.
//Changes in the view are reflected in F and vice-versa.
func (F *Matrix) View(i, r int) *Matrix {
	ret := F.Dense.Slice(i, i+r, 0, 3).(*mat.Dense)
	return &Matrix{ret}
}

//SomeVecs returns a new Matrix with the vectors of F in the positions
//given by vecs, in order.
func (F *Matrix) SomeVecs(vecs []int) (*Matrix, error) {
	lenvecs := F.NVecs()
	ret := Zeros(len(vecs))
	for k, j := range vecs {
		if j >= lenvecs {
			return nil, Error{fmt.Sprintf("Vector requested (number: %d, value: %d) out of range", k, j), []string{"SomeVecs"}, true}
		}
		for i := 0; i < 3; i++ {
			ret.Set(k, i, F.At(j, i))
		}
	}
	return ret, nil
}

//SetMatrix puts the matrix A in the receiver, starting from the
//ith vector of the receiver.
func (F *Matrix) SetMatrix(i int, A *Matrix) {
	ar := A.NVecs()
	if ar+i > F.NVecs() {
		panic(ErrShape)
	}
	for k := 0; k < ar; k++ {
		for j := 0; j < 3; j++ {
			F.Set(k+i, j, A.At(k, j))
		}
	}
}

//Scale puts in the receiver the matrix A scaled by v. The receiver
//can be A itself.
func (F *Matrix) Scale(v float64, A *Matrix) {
	F.Dense.Scale(v, A.Dense)
}

//Add puts in the receiver the sum A+B. The receiver can be A or B.
func (F *Matrix) Add(A, B *Matrix) {
	F.Dense.Add(A.Dense, B.Dense)
}

//Sub puts in the receiver the difference A-B. The receiver can be A or B.
func (F *Matrix) Sub(A, B *Matrix) {
	F.Dense.Sub(A.Dense, B.Dense)
}

//Copy returns a new Matrix with a copy of the data in F.
func (F *Matrix) Copy() *Matrix {
	return &Matrix{mat.DenseCopyOf(F.Dense)}
}

//SwapVecs swaps the ith and jth vectors of the matrix.
func (F *Matrix) SwapVecs(i, j int) {
	l := F.NVecs()
	if i >= l || j >= l {
		panic(ErrIndexOutOfRange)
	}
	for k := 0; k < 3; k++ {
		tmp := F.At(i, k)
		F.Set(i, k, F.At(j, k))
		F.Set(j, k, tmp)
	}
}

//Norm returns the Frobenius norm of the matrix.
func (F *Matrix) Norm() float64 {
	return mat.Norm(F.Dense, 2)
}

//MaxVecNorm returns the largest Euclidean norm among the
//vectors of the matrix.
func (F *Matrix) MaxVecNorm() float64 {
	max := 0.0
	for i := 0; i < F.NVecs(); i++ {
		n := math.Sqrt(F.At(i, 0)*F.At(i, 0) + F.At(i, 1)*F.At(i, 1) + F.At(i, 2)*F.At(i, 2))
		if n > max {
			max = n
		}
	}
	return max
}

//Errors

//Error is the concrete error type for the package. It implements the
//same Decorate scheme used in the rest of the library.
type Error struct {
	message  string
	deco     []string
	critical bool
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

//Decorate will add the dec string to the decoration slice of strings of the
//error, and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical returns whether the error is critical or it can be ignored.
func (err Error) Critical() bool { return err.critical }

//PanicMsg is a message used for panics. For errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix    = PanicMsg("goqchem/v3: A Matrix should have 3 columns")
	ErrShape           = PanicMsg("goqchem/v3: Dimension mismatch")
	ErrIndexOutOfRange = PanicMsg("goqchem/v3: Index out of range")
)
