// Package osbackend implements the platform-specific half of the
// obfuscator: anti-debug and integrity-check condition generators (spec
// §4.3) and the post-compile binary patcher that closes the loop
// between a generated IntegrityCheck and the compiled executable.
package osbackend

import (
	"bytes"
	"crypto/sha512"
	"debug/elf"
	"debug/pe"
	"fmt"
	"os"

	"r2d2/ast"
)

// section is the patcher's platform-neutral view of one section: its
// file offset, its on-disk (raw) size, and its in-memory (virtual)
// size. Runtime and post-compile hashing must agree on length (spec
// §4.3's truncation rule), so both read exactly min(virtualSize,
// rawSize) bytes starting at offset.
type section struct {
	offset      int64
	rawSize     int64
	virtualSize int64
}

func (s section) hashLen() int64 {
	if s.virtualSize < s.rawSize {
		return s.virtualSize
	}
	return s.rawSize
}

// layout is the two sections the patcher needs out of a parsed binary:
// the code section (anchor search + hashing) and the initialized-
// read-only-data section (placeholder search + overwrite).
type layout struct {
	code   section
	rodata section
}

// parseLayout opens path and locates its code and read-only-data
// sections, trying ELF first and falling back to PE — a binary is
// exactly one or the other, so exactly one parse succeeds.
func parseLayout(path string) (layout, error) {
	if f, err := elf.Open(path); err == nil {
		defer f.Close()
		return elfLayout(f)
	}
	if f, err := pe.Open(path); err == nil {
		defer f.Close()
		return peLayout(f)
	}
	return layout{}, ErrBinaryParse{Path: path, Err: fmt.Errorf("neither a valid ELF nor a valid PE image")}
}

func elfLayout(f *elf.File) (layout, error) {
	var out layout
	var foundCode, foundRodata bool
	for _, sec := range f.Sections {
		if sec.Type != elf.SHT_PROGBITS || sec.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		s := section{offset: int64(sec.Offset), rawSize: int64(sec.Size), virtualSize: int64(sec.Size)}
		switch {
		case sec.Flags&elf.SHF_EXECINSTR != 0 && sec.Name == ".text" && !foundCode:
			out.code = s
			foundCode = true
		case sec.Flags&elf.SHF_WRITE == 0 && sec.Name == ".rodata" && !foundRodata:
			out.rodata = s
			foundRodata = true
		}
	}
	if !foundCode {
		return layout{}, fmt.Errorf("no .text section found")
	}
	if !foundRodata {
		return layout{}, fmt.Errorf("no .rodata section found")
	}
	return out, nil
}

func peLayout(f *pe.File) (layout, error) {
	var out layout
	var foundCode, foundRodata bool
	for _, sec := range f.Sections {
		s := section{
			offset:      int64(sec.Offset),
			rawSize:     int64(sec.Size),
			virtualSize: int64(sec.VirtualSize),
		}
		switch sec.Name {
		case ".text":
			out.code = s
			foundCode = true
		case ".rdata":
			out.rodata = s
			foundRodata = true
		}
	}
	if !foundCode {
		return layout{}, fmt.Errorf("no .text section found")
	}
	if !foundRodata {
		return layout{}, fmt.Errorf("no .rdata section found")
	}
	return out, nil
}

// hashCodeSection is the post-compile half of spec §4.3 step 3c: the
// real digest over exactly the bytes the runtime probe reads,
// min(virtual_size, raw_size) of the code section, salted with salt —
// matching osbackend's runtime helper r2d2::integrity::hash_code_section
// exactly so the two sides of the bidirectional contract agree.
func hashCodeSection(code []byte, salt [32]byte) [64]byte {
	h := sha512.New()
	h.Write(salt[:])
	h.Write(code)
	var out [64]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Patch implements spec §4.3's post-compile patcher: for every
// IntegrityCheck, search the code section for the salt anchor; if
// absent, the check was optimizer-elided and is silently skipped
// (testable property 12). If present, the placeholder hash must be
// found in the read-only-data section (ErrPlaceholderNotFound
// otherwise) and is overwritten in place with the real digest.
func Patch(binaryPath string, checks []ast.IntegrityCheck) error {
	raw, err := os.ReadFile(binaryPath)
	if err != nil {
		return ErrBinaryParse{Path: binaryPath, Err: err}
	}
	lay, err := parseLayout(binaryPath)
	if err != nil {
		return ErrBinaryParse{Path: binaryPath, Err: err}
	}

	codeBytes := sliceSection(raw, lay.code)
	rodataBytes := sliceSection(raw, lay.rodata)

	var writes []patchWrite
	for _, check := range checks {
		if !bytes.Contains(codeBytes, check.Salt[:]) {
			continue
		}
		idx := bytes.Index(rodataBytes, check.PlaceholderHash[:])
		if idx < 0 {
			return ErrPlaceholderNotFound{Section: ".rodata"}
		}
		real := hashCodeSection(codeBytes, check.Salt)
		writes = append(writes, patchWrite{
			offset: lay.rodata.offset + int64(idx),
			data:   real[:],
		})
	}
	if len(writes) == 0 {
		return nil
	}
	return writeBackPatches(binaryPath, writes)
}

func sliceSection(raw []byte, s section) []byte {
	n := s.hashLen()
	if s.offset < 0 || n <= 0 || s.offset+n > int64(len(raw)) {
		return nil
	}
	return raw[s.offset : s.offset+n]
}

// patchWrite is one overwrite the platform-specific write-back applies:
// data replaces the bytes at offset in the binary image.
type patchWrite struct {
	offset int64
	data   []byte
}
