/*
 * run.go, part of goqchem.
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

package run

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	chem "github.com/rmera/goqchem"
)

//Handler recognizes one failure mode in a Q-Chem output and knows how to
//correct the input so the job can be retried.
type Handler interface {

	//Name identifies the handler in logs.
	Name() string

	//Check returns true if the output file shows the failure this
	//handler corrects.
	Check(outname string) bool

	//Correct modifies the input so the retried job avoids the failure.
	//It may read the failed output (e.g. to recover the last geometry).
	Correct(Q *chem.QCInput, outname string) error
}

//Runner runs a Q-Chem job with simple error recovery: if the calculation
//does not terminate normally, the output is checked against the
//registered handlers, the input corrected, and the job retried, up to
//MaxErrors corrections.
type Runner struct {
	Cmd        string //the Q-Chem executable, without flags
	NCores     int
	InputFile  string
	OutputFile string
	LogFile    string //standard output of the program, not written if empty
	MaxErrors  int
	Backup     bool //copy the initial input to input+".orig" before running
	GzipOutput bool
	Handlers   []Handler
}

//NewRunner returns a Runner with the defaults: mol.qin/mol.qout, 5
//corrected errors at most, backup and compression on, and the default
//handler set.
func NewRunner(cmd string) *Runner {
	R := new(Runner)
	R.Cmd = cmd
	R.NCores = runtime.NumCPU()
	R.InputFile = "mol.qin"
	R.OutputFile = "mol.qout"
	R.MaxErrors = 5
	R.Backup = true
	R.GzipOutput = true
	R.Handlers = []Handler{new(SCFConvergenceHandler), new(OptCyclesHandler)}
	return R
}

//Run runs the job, correcting and retrying on recognized failures, and
//compresses the results if requested. It returns an error if the job
//cannot be brought to normal termination.
func (R *Runner) Run() error {
	if R.Backup {
		if err := copyFile(R.InputFile, R.InputFile+".orig"); err != nil {
			return err
		}
	}
	fixed := 0
	for {
		R.runOnce()
		if chem.QCNormalTermination(R.OutputFile) {
			break
		}
		if fixed >= R.MaxErrors {
			return fmt.Errorf("Reached the maximum of %d corrected errors for %s", R.MaxErrors, R.InputFile)
		}
		h := R.matchHandler()
		if h == nil {
			return fmt.Errorf("Job failed with an error no handler recognizes, see %s", R.OutputFile)
		}
		Q, err := chem.QCInputRead(R.InputFile)
		if err != nil {
			return err
		}
		if err := h.Correct(Q, R.OutputFile); err != nil {
			return err
		}
		if err := chem.QCInputWrite(R.InputFile, Q); err != nil {
			return err
		}
		fixed++
		log.Printf("corrected %s in %s, retrying (%d/%d)", h.Name(), R.InputFile, fixed, R.MaxErrors)
	}
	if R.GzipOutput {
		if err := GzipFile(R.OutputFile); err != nil {
			return err
		}
		if R.LogFile != "" {
			if err := GzipFile(R.LogFile); err != nil {
				return err
			}
		}
	}
	return nil
}

//runOnce runs the program one time. A crashed program is not an error
//here: the output scan decides what to do with the job.
func (R *Runner) runOnce() {
	command := exec.Command(R.Cmd, "-nt", strconv.Itoa(R.NCores), R.InputFile, R.OutputFile)
	if R.LogFile != "" {
		logf, err := os.Create(R.LogFile)
		if err == nil {
			defer logf.Close()
			command.Stdout = logf
			command.Stderr = logf
		}
	}
	if err := command.Run(); err != nil {
		log.Printf("%s exited with error: %v", R.Cmd, err)
	}
}

func (R *Runner) matchHandler() Handler {
	for _, h := range R.Handlers {
		if h.Check(R.OutputFile) {
			return h
		}
	}
	return nil
}

//SCFConvergenceHandler corrects jobs whose SCF failed to converge by
//switching to the slower but more robust DIIS-GDM algorithm and raising
//the cycle limit.
type SCFConvergenceHandler struct{}

func (h *SCFConvergenceHandler) Name() string { return "SCF convergence failure" }

func (h *SCFConvergenceHandler) Check(outname string) bool {
	return outputContains(outname, "SCF failed to converge")
}

func (h *SCFConvergenceHandler) Correct(Q *chem.QCInput, outname string) error {
	Q.RemSet("scf_algorithm", "diis_gdm")
	Q.RemSet("max_scf_cycles", "200")
	return nil
}

//OptCyclesHandler corrects optimizations that ran out of cycles: it
//raises the cycle limit and restarts from the last geometry reached.
type OptCyclesHandler struct{}

func (h *OptCyclesHandler) Name() string { return "optimization cycles exceeded" }

func (h *OptCyclesHandler) Check(outname string) bool {
	return outputContains(outname, "MAXIMUM OPTIMIZATION CYCLES REACHED")
}

func (h *OptCyclesHandler) Correct(Q *chem.QCInput, outname string) error {
	Q.RemSet("geom_opt_max_cycles", "200")
	geo, _, err := chem.QCOutputLastGeometry(outname)
	if err != nil {
		return err
	}
	return Q.SetGeometry(geo)
}

//outputContains returns true if the file contains the marker. The
//outputs can be large, so it scans by line instead of slurping.
func outputContains(name, marker string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), marker) {
			return true
		}
	}
	return false
}

//GzipFile compresses the file with the given name into name.gz and
//removes the original.
func GzipFile(name string) error {
	in, err := os.Open(name)
	if err != nil {
		return err
	}
	out, err := os.Create(name + ".gz")
	if err != nil {
		in.Close()
		return err
	}
	zw := gzip.NewWriter(out)
	_, err = io.Copy(zw, in)
	in.Close()
	if err != nil {
		zw.Close()
		out.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
