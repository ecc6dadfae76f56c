/*
 * run_test.go, part of goqchem.
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

package run

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	chem "github.com/rmera/goqchem"
)

const waterOptInput = `$molecule
 0 1
 O    0.0000000000    0.0000000000    0.1177900000
 H    0.0000000000    0.7554500000   -0.4711600000
 H    0.0000000000   -0.7554500000   -0.4711600000
$end

$rem
   jobtype = opt
   method = B3LYP
   basis = def2-SVP
$end
`

//writeStub writes a shell script that stands in for Q-Chem: it appends
//a line to a "calls" file next to the input each time it runs, and
//prints the given body. The runner invokes it as cmd -nt N in out, so
//$3 is the input and $4 the output.
func writeStub(Te *testing.T, dir, body string) string {
	script := "#!/bin/sh\nin=\"$3\"\nout=\"$4\"\necho run >> \"$(dirname \"$in\")/calls\"\n" + body
	name := filepath.Join(dir, "qchem-stub")
	if err := os.WriteFile(name, []byte(script), 0755); err != nil {
		Te.Fatal(err)
	}
	return name
}

//fixableStub fails with an SCF error until the input carries the
//diis_gdm correction, and prints a small terminated output afterwards,
//with frequencies if the input asks for them.
const fixableStub = `if ! grep -q diis_gdm "$in"; then
    echo " SCF failed to converge" > "$out"
    exit 2
fi
cat > "$out" << 'XEOF'
             Standard Nuclear Orientation (Angstroms)
    I     Atom           X                Y                Z
 ----------------------------------------------------------------
    1      O       0.0000000000     0.0000000000     0.1177900000
    2      H       0.0000000000     0.7554500000    -0.4711600000
    3      H       0.0000000000    -0.7554500000    -0.4711600000
 ----------------------------------------------------------------
XEOF
if grep -q freq "$in"; then
    echo " Frequency:    1612.4800    3704.1100    3800.0000" >> "$out"
fi
echo " Thank you very much for using Q-Chem" >> "$out"
`

func countCalls(Te *testing.T, dir string) int {
	data, err := os.ReadFile(filepath.Join(dir, "calls"))
	if err != nil {
		Te.Fatal(err)
	}
	return strings.Count(string(data), "run")
}

//TestSCFConvergenceHandler checks that an SCF failure is recognized and
//that the correction switches the SCF algorithm.
func TestSCFConvergenceHandler(Te *testing.T) {
	h := new(SCFConvergenceHandler)
	if !h.Check("../test/scffail.qout") {
		Te.Error("an SCF failure was not recognized")
	}
	if h.Check("../test/opt.qout") {
		Te.Error("a converged job passed as an SCF failure")
	}
	Q, err := chem.QCInputRead("../test/mol.qin")
	if err != nil {
		Te.Fatal(err)
	}
	if err := h.Correct(Q, "../test/scffail.qout"); err != nil {
		Te.Fatal(err)
	}
	if v, _ := Q.RemGet("scf_algorithm"); v != "diis_gdm" {
		Te.Errorf("correction did not switch the SCF algorithm: %q", v)
	}
	if n, err := Q.RemInt("max_scf_cycles"); err != nil || n != 200 {
		Te.Errorf("correction did not raise the cycle limit: %d, %v", n, err)
	}
}

//TestOptCyclesHandler checks that an optimization that ran out of cycles
//is restarted from the last geometry reached.
func TestOptCyclesHandler(Te *testing.T) {
	h := new(OptCyclesHandler)
	if !h.Check("../test/optfail.qout") {
		Te.Error("an exhausted optimization was not recognized")
	}
	if h.Check("../test/scffail.qout") {
		Te.Error("an SCF failure passed as an exhausted optimization")
	}
	Q, err := chem.QCInputRead("../test/mol.qin")
	if err != nil {
		Te.Fatal(err)
	}
	if err := h.Correct(Q, "../test/optfail.qout"); err != nil {
		Te.Fatal(err)
	}
	if n, err := Q.RemInt("geom_opt_max_cycles"); err != nil || n != 200 {
		Te.Errorf("correction did not raise the cycle limit: %d, %v", n, err)
	}
	//the geometry should now be the last one in the failed output
	if Q.Atoms[0].Coords[0] != -0.5755310000 {
		Te.Errorf("correction did not update the geometry: %f", Q.Atoms[0].Coords[0])
	}
}

//TestRunnerRun drives the whole correct-and-retry loop with a stub
//program that fails until the input carries the SCF correction: the
//input must be backed up before any correction, the corrected input
//used for the retry, and the results compressed.
func TestRunnerRun(Te *testing.T) {
	dir := Te.TempDir()
	input := filepath.Join(dir, "mol.qin")
	if err := os.WriteFile(input, []byte(waterOptInput), 0644); err != nil {
		Te.Fatal(err)
	}
	R := NewRunner(writeStub(Te, dir, fixableStub))
	R.InputFile = input
	R.OutputFile = filepath.Join(dir, "mol.qout")
	R.LogFile = filepath.Join(dir, "mol.qlog")
	if err := R.Run(); err != nil {
		Te.Fatal(err)
	}
	if n := countCalls(Te, dir); n != 2 {
		Te.Errorf("the job should run twice (fail, retry), ran %d times", n)
	}
	orig, err := os.ReadFile(input + ".orig")
	if err != nil {
		Te.Fatal(err)
	}
	if strings.Contains(string(orig), "diis_gdm") {
		Te.Error("the backup should predate the corrections")
	}
	Q, err := chem.QCInputRead(input)
	if err != nil {
		Te.Fatal(err)
	}
	if v, _ := Q.RemGet("scf_algorithm"); v != "diis_gdm" {
		Te.Errorf("the correction is not in the input used for the retry: %q", v)
	}
	if _, err := os.Stat(R.OutputFile + ".gz"); err != nil {
		Te.Error("the output was not compressed")
	}
	if _, err := os.Stat(R.OutputFile); !os.IsNotExist(err) {
		Te.Error("the uncompressed output should be removed")
	}
	if _, err := os.Stat(R.LogFile + ".gz"); err != nil {
		Te.Error("the log was not compressed")
	}
}

//TestRunnerRunFailures checks the two ways Run can give up: running out
//of corrections, and a failure no handler recognizes.
func TestRunnerRunFailures(Te *testing.T) {
	dir := Te.TempDir()
	input := filepath.Join(dir, "mol.qin")
	if err := os.WriteFile(input, []byte(waterOptInput), 0644); err != nil {
		Te.Fatal(err)
	}
	R := NewRunner(writeStub(Te, dir, "echo \" SCF failed to converge\" > \"$out\"\nexit 2\n"))
	R.InputFile = input
	R.OutputFile = filepath.Join(dir, "mol.qout")
	R.MaxErrors = 2
	err := R.Run()
	if err == nil || !strings.Contains(err.Error(), "maximum") {
		Te.Errorf("exhausting the corrections should report the limit, got: %v", err)
	}
	if n := countCalls(Te, dir); n != 3 {
		Te.Errorf("expected the initial run plus 2 corrected retries, ran %d times", n)
	}
	dir2 := Te.TempDir()
	input2 := filepath.Join(dir2, "mol.qin")
	if err := os.WriteFile(input2, []byte(waterOptInput), 0644); err != nil {
		Te.Fatal(err)
	}
	R2 := NewRunner(writeStub(Te, dir2, "echo \" segmentation fault\" > \"$out\"\nexit 2\n"))
	R2.InputFile = input2
	R2.OutputFile = filepath.Join(dir2, "mol.qout")
	err = R2.Run()
	if err == nil || !strings.Contains(err.Error(), "no handler") {
		Te.Errorf("an unrecognized failure should say so, got: %v", err)
	}
}

//TestFlattenKeepsCorrections runs the opt/freq loop with the stub: the
//correction written during the optimization must survive into the
//frequency input, so the stub runs three times (failed opt, corrected
//opt, freq), not four.
func TestFlattenKeepsCorrections(Te *testing.T) {
	dir := Te.TempDir()
	input := filepath.Join(dir, "mol.qin")
	if err := os.WriteFile(input, []byte(waterOptInput), 0644); err != nil {
		Te.Fatal(err)
	}
	R := NewRunner(writeStub(Te, dir, fixableStub))
	R.InputFile = input
	R.OutputFile = filepath.Join(dir, "mol.qout")
	F := NewOptFreqFlattener(R)
	n, err := F.Flatten()
	if err != nil {
		Te.Fatal(err)
	}
	if n != 1 {
		Te.Errorf("a minimum with no imaginary modes should take 1 iteration, took %d", n)
	}
	if calls := countCalls(Te, dir); calls != 3 {
		Te.Errorf("the stub should run 3 times (failed opt, corrected opt, freq), ran %d", calls)
	}
	Q, err := chem.QCInputRead(input)
	if err != nil {
		Te.Fatal(err)
	}
	if v, _ := Q.RemGet("scf_algorithm"); v != "diis_gdm" {
		Te.Error("the correction from the optimization was lost in the frequency input")
	}
	if v, _ := Q.RemGet("jobtype"); v != "freq" {
		Te.Errorf("the last input written should be the frequency job, got %q", v)
	}
}

//TestGzipFile compresses a file, decompresses it back and checks the
//content, and that the original is removed.
func TestGzipFile(Te *testing.T) {
	content := []byte("Thank you very much for using Q-Chem\n")
	name := filepath.Join(Te.TempDir(), "out.qout")
	if err := os.WriteFile(name, content, 0644); err != nil {
		Te.Fatal(err)
	}
	if err := GzipFile(name); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(name); !os.IsNotExist(err) {
		Te.Error("the original file should be removed after compression")
	}
	f, err := os.Open(name + ".gz")
	if err != nil {
		Te.Fatal(err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		Te.Fatal(err)
	}
	defer zr.Close()
	got, err := io.ReadAll(zr)
	if err != nil {
		Te.Fatal(err)
	}
	if string(got) != string(content) {
		Te.Errorf("content changed on compression round trip: %q", got)
	}
}

//TestPerturb checks that the flattening perturbation displaces the atoms
//along the imaginary mode, the largest displacement being MaxPerturbScale.
func TestPerturb(Te *testing.T) {
	geo, _, err := chem.QCOutputLastGeometry("../test/freq.qout")
	if err != nil {
		Te.Fatal(err)
	}
	mode, err := chem.QCOutputFirstImaginaryMode("../test/freq.qout", 3)
	if err != nil {
		Te.Fatal(err)
	}
	F := NewOptFreqFlattener(NewRunner("qchem"))
	if err := F.perturb(geo, mode); err != nil {
		Te.Fatal(err)
	}
	//the H atoms carry the largest component of the mode, 0.555 on x
	if math.Abs(geo.At(1, 0)-(-0.3)) > 1e-10 {
		Te.Errorf("wrong displacement for the largest mode component: %f", geo.At(1, 0))
	}
	//y and z of the mode are zero, so those coordinates don't move
	if geo.At(1, 1) != 0.7554500000 {
		Te.Errorf("an atom moved where the mode is zero: %f", geo.At(1, 1))
	}
}

//TestFlattenNeedsOpt checks that the flattener refuses inputs that are
//not optimizations, before running anything.
func TestFlattenNeedsOpt(Te *testing.T) {
	Q, err := chem.QCInputRead("../test/mol.qin")
	if err != nil {
		Te.Fatal(err)
	}
	Q.RemSet("jobtype", "sp")
	name := filepath.Join(Te.TempDir(), "sp.qin")
	if err := chem.QCInputWrite(name, Q); err != nil {
		Te.Fatal(err)
	}
	R := NewRunner("qchem")
	R.InputFile = name
	F := NewOptFreqFlattener(R)
	if _, err := F.Flatten(); err == nil {
		Te.Error("a single-point input should be rejected by the flattener")
	}
}
