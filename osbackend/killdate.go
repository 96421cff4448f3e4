package osbackend

import (
	"os"
	"strconv"
	"time"

	"r2d2/ast"
	"r2d2/token"
)

// killDateDebugGrace is the "now plus a short duration" default spec
// §4.6 permits only in debug configurations when KILLDATE is unset: an
// hour gives a debug build enough runway to exercise the rest of the
// program before the check starts firing, without the condition sitting
// permanently false the way a multi-day default would.
const killDateDebugGrace = time.Hour

// GenerateKillDateCheck implements spec §4.6's kill-date condition: true
// at runtime once wall-clock seconds since epoch reach target. target
// comes from the KILLDATE environment variable (decimal seconds since
// the Unix epoch); if unset, release forbids the check entirely
// (ErrKillDateMissing) and debug falls back to "now plus an hour".
func GenerateKillDateCheck(release bool) (ast.ShatterCondition, error) {
	target, err := killDateTarget(release)
	if err != nil {
		return ast.ShatterCondition{}, err
	}

	nowName := ast.MintIdentifier()
	setup := []ast.Stmt{
		&ast.LetStmt{Name: nowName, Value: callPath("r2d2::killdate::now_since_epoch")},
	}
	check := &ast.BinaryExpr{
		Left:  pathExpr(nowName),
		Op:    token.GE,
		Right: &ast.Literal{Kind: ast.IntLit, Value: int64(target)},
	}
	return ast.ShatterCondition{Setup: setup, Check: check}, nil
}

func killDateTarget(release bool) (uint64, error) {
	if raw, ok := os.LookupEnv("KILLDATE"); ok {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, err
		}
		return v, nil
	}
	if release {
		return 0, ErrKillDateMissing{}
	}
	return uint64(time.Now().Add(killDateDebugGrace).Unix()), nil
}
