// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// gvdump prints a serialized value file in text notation.
//
// Usage:
//
//	gvdump --type TYPE [--byteswap] [--cbor] FILE
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"gvariant.dev/gvariant"
	"gvariant.dev/gvariant/codec"
)

func main() {
	var (
		typeStr  = pflag.StringP("type", "t", "", "type of the serialized value (required)")
		byteswap = pflag.Bool("byteswap", false, "input is in the opposite byte order")
		trusted  = pflag.Bool("trusted", false, "skip normalization checks")
		toCBOR   = pflag.Bool("cbor", false, "emit canonical CBOR on stdout instead of text")
	)
	pflag.Parse()
	if *typeStr == "" || pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gvdump --type TYPE [--byteswap] [--trusted] [--cbor] FILE")
		os.Exit(2)
	}

	t, err := gvariant.ParseType(*typeStr)
	if err != nil {
		fatal(err)
	}
	if !t.IsDefinite() {
		fatal(fmt.Errorf("type %q is not definite", t))
	}

	var flags gvariant.LoadFlags
	if *byteswap {
		flags |= gvariant.Byteswapped | gvariant.LazyByteswap
	}
	if *trusted {
		flags |= gvariant.TrustedData
	}
	v, err := gvariant.FromFile(t, pflag.Arg(0), flags)
	if err != nil {
		fatal(err)
	}
	defer v.Unref()
	v.RefSink()

	if !*trusted && !v.IsNormalForm() {
		fmt.Fprintln(os.Stderr, "gvdump: warning: input is not in normal form")
	}

	if *toCBOR {
		out, err := codec.Encode(v)
		if err != nil {
			fatal(err)
		}
		if _, err := os.Stdout.Write(out); err != nil {
			fatal(err)
		}
		return
	}
	fmt.Println(v)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "gvdump:", err)
	os.Exit(1)
}
