// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import "sync"

// Shared all-zero filler buffers, bucketed by power of two.  Child access on
// corrupt untrusted containers substitutes these for would-be fixed-size
// children, so callers of fixed-size accessors always receive a span of the
// right length without a per-access allocation.  The buffers are immortal
// and must never be written.
var (
	zeroFillMu  sync.Mutex
	zeroBuckets [][]byte
)

func zeroFill(n int) []byte {
	if n == 0 {
		return nil
	}
	bucket := 0
	for 1<<bucket < n {
		bucket++
	}
	zeroFillMu.Lock()
	for len(zeroBuckets) <= bucket {
		zeroBuckets = append(zeroBuckets, make([]byte, 1<<len(zeroBuckets)))
	}
	buf := zeroBuckets[bucket]
	zeroFillMu.Unlock()
	return buf[:n]
}
