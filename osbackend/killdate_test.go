package osbackend

import (
	"os"
	"testing"

	"r2d2/ast"
)

func TestGenerateKillDateCheckUsesKilldateEnvWhenSet(t *testing.T) {
	t.Setenv("KILLDATE", "1700000000")

	cond, err := GenerateKillDateCheck(true)
	if err != nil {
		t.Fatalf("GenerateKillDateCheck: %v", err)
	}
	bin, ok := cond.Check.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("check is %T, want *ast.BinaryExpr", cond.Check)
	}
	lit, ok := bin.Right.(*ast.Literal)
	if !ok || lit.Value != int64(1700000000) {
		t.Fatalf("check right-hand side is %#v, want the KILLDATE value", bin.Right)
	}
	if len(cond.Setup) != 1 {
		t.Fatalf("expected exactly one setup statement binding now-since-epoch, got %d", len(cond.Setup))
	}
}

func TestGenerateKillDateCheckFailsInReleaseWithoutEnv(t *testing.T) {
	os.Unsetenv("KILLDATE")

	_, err := GenerateKillDateCheck(true)
	if _, ok := err.(ErrKillDateMissing); !ok {
		t.Fatalf("error is %#v, want ErrKillDateMissing", err)
	}
}

func TestGenerateKillDateCheckDebugDefaultWithoutEnv(t *testing.T) {
	os.Unsetenv("KILLDATE")

	cond, err := GenerateKillDateCheck(false)
	if err != nil {
		t.Fatalf("GenerateKillDateCheck in debug mode without KILLDATE should not fail: %v", err)
	}
	if cond.Check == nil {
		t.Fatalf("expected a non-nil check expression for the debug-only default")
	}
}

func TestGenerateKillDateCheckRejectsMalformedEnv(t *testing.T) {
	t.Setenv("KILLDATE", "not-a-number")

	if _, err := GenerateKillDateCheck(false); err == nil {
		t.Fatalf("expected an error for a non-numeric KILLDATE")
	}
}
