//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2026 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package resourcelimits

import (
	"fmt"
	"strconv"
	"strings"
)

var memUnits = []struct {
	suffix string
	factor int64
}{
	{"GiB", 1 << 30},
	{"MiB", 1 << 20},
	{"KiB", 1 << 10},
}

// ParseMemLimit parses limits in the format of GOMEMLIMIT, e.g. "4GiB",
// "512MiB" or a plain number of bytes.
func ParseMemLimit(goMemLimit string) (int64, error) {
	val, err := func() (int64, error) {
		for _, unit := range memUnits {
			if number, ok := strings.CutSuffix(goMemLimit, unit.suffix); ok {
				limit, err := strconv.ParseInt(number, 10, 64)
				if err != nil {
					return 0, err
				}
				return limit * unit.factor, nil
			}
		}
		// plain bytes without a unit
		return strconv.ParseInt(goMemLimit, 10, 64)
	}()
	if err != nil {
		return 0, fmt.Errorf("invalid memory limit format. Acceptable values are: XXXGiB, "+
			"YYYMiB, ZZZKiB or a number of bytes without a unit. Got: %s: %w", goMemLimit, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("memory limit must not be negative, got %s", goMemLimit)
	}
	return val, nil
}
