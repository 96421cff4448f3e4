package main

import "encoding/hex"

// hexEncode/hexDecode round-trip the fixed-size byte arrays inside an
// ast.IntegrityCheck through the JSON sidecar files obfuscateCmd writes
// and postcompileCmd reads back.
func hexEncode(b []byte) string { return hex.EncodeToString(b) }

func hexDecode(s string) ([]byte, error) { return hex.DecodeString(s) }
