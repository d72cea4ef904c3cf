// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cost

import (
	"strings"

	"go.chromium.org/infra/build/hdrcost/scandeps"
)

// EstimateConfidence returns confidence of estimated cost of inc in [0, 1].
// It is higher for headers known by table or with facts, and lower for
// unknown system headers.
func EstimateConfidence(table Table, inc scandeps.Inclusion, hasFacts bool) float64 {
	c := 0.5
	h := strings.ToLower(inc.Header)
	for _, e := range table {
		if strings.Contains(h, e.Pattern) {
			c += 0.3
			break
		}
	}
	if hasFacts {
		c += 0.2
	}
	if inc.System && !table.HasPattern(inc.Header) {
		c -= 0.2
	}
	return max(0, min(1, c))
}
