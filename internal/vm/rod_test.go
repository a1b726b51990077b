package vm

import (
	"testing"

	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/source"
)

// recordingNode is a test-only Node that appends its own index to a shared
// log and optionally returns a fixed status or error, letting rod_test
// exercise Run's driver loop without depending on package air.
type recordingNode struct {
	log    *[]int
	index  int
	status Status
	err    *cerr.RuntimeError
}

func (n recordingNode) Exec(ctx *Context) (Status, *cerr.RuntimeError) {
	*n.log = append(*n.log, n.index)
	return n.status, n.err
}

func TestRodAppendAndLen(t *testing.T) {
	r := NewRodBuilder()
	var log []int
	r.Append(recordingNode{log: &log, index: 0}, source.Location{})
	r.Append(recordingNode{log: &log, index: 1}, source.Location{})
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	if r.Sealed() {
		t.Error("a freshly built rod should not be sealed")
	}
}

func TestRodFinalizeSealsAndAppendPanics(t *testing.T) {
	r := NewRodBuilder()
	r.Finalize()
	if !r.Sealed() {
		t.Fatal("Finalize should seal the rod")
	}
	defer func() {
		if recover() == nil {
			t.Error("Append on a sealed rod should panic")
		}
	}()
	r.Append(recordingNode{log: &[]int{}}, source.Location{})
}

func TestRunExecutesAllRecordsInOrder(t *testing.T) {
	r := NewRodBuilder()
	var log []int
	r.Append(recordingNode{log: &log, index: 0, status: StatusNext}, source.Location{})
	r.Append(recordingNode{log: &log, index: 1, status: StatusNext}, source.Location{})
	r.Append(recordingNode{log: &log, index: 2, status: StatusNext}, source.Location{})
	r.Finalize()

	ctx := NewGlobalContext(nil)
	status, err := Run(r, ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != StatusNext {
		t.Errorf("status = %v, want StatusNext", status)
	}
	if len(log) != 3 || log[0] != 0 || log[1] != 1 || log[2] != 2 {
		t.Errorf("log = %v, want [0 1 2]", log)
	}
}

func TestRunStopsOnNonNextStatus(t *testing.T) {
	r := NewRodBuilder()
	var log []int
	r.Append(recordingNode{log: &log, index: 0, status: StatusNext}, source.Location{})
	r.Append(recordingNode{log: &log, index: 1, status: StatusReturn}, source.Location{})
	r.Append(recordingNode{log: &log, index: 2, status: StatusNext}, source.Location{})
	r.Finalize()

	ctx := NewGlobalContext(nil)
	status, err := Run(r, ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != StatusReturn {
		t.Errorf("status = %v, want StatusReturn", status)
	}
	if len(log) != 2 {
		t.Errorf("log = %v, want exactly the first two records to run", log)
	}
}

func TestRunPropagatesError(t *testing.T) {
	wantErr := cerr.NewRuntimeError("boom", cerr.Frame{Type: cerr.FrameThrow})
	r := NewRodBuilder()
	var log []int
	r.Append(recordingNode{log: &log, index: 0, status: StatusNext, err: wantErr}, source.Location{})
	r.Append(recordingNode{log: &log, index: 1, status: StatusNext}, source.Location{})
	r.Finalize()

	ctx := NewGlobalContext(nil)
	_, err := Run(r, ctx)
	if err != wantErr {
		t.Fatalf("Run error = %v, want %v", err, wantErr)
	}
	if len(log) != 1 {
		t.Errorf("log = %v, want the second record to never run", log)
	}
}

func TestStatusBreakContinueClassification(t *testing.T) {
	if !StatusBreakFor.IsBreak() {
		t.Error("StatusBreakFor should be IsBreak")
	}
	if StatusBreakFor.IsContinue() {
		t.Error("StatusBreakFor should not be IsContinue")
	}
	if !StatusContinueWhile.IsContinue() {
		t.Error("StatusContinueWhile should be IsContinue")
	}
	if StatusNext.IsBreak() || StatusNext.IsContinue() {
		t.Error("StatusNext should be neither break nor continue")
	}
}
