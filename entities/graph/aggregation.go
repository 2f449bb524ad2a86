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

package graph

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Aggregation decides what happens when the same (source, target) pair is
// added more than once. It is applied per property column.
type Aggregation int

const (
	// Default resolves to None.
	Default Aggregation = iota
	// None keeps every parallel relationship.
	None
	// Single keeps one relationship. Parallel relationships are ordered by
	// their property values before aggregation, so the kept value is the
	// smallest one and Single yields the same values as Min.
	Single
	Sum
	Min
	Max
	// Count replaces the property with the number of collapsed relationships.
	Count
)

func (a Aggregation) String() string {
	switch a {
	case Default:
		return "default"
	case None:
		return "none"
	case Single:
		return "single"
	case Sum:
		return "sum"
	case Min:
		return "min"
	case Max:
		return "max"
	case Count:
		return "count"
	default:
		return fmt.Sprintf("aggregation(%d)", int(a))
	}
}

func ParseAggregation(in string) (Aggregation, error) {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "", "default":
		return Default, nil
	case "none":
		return None, nil
	case "single":
		return Single, nil
	case "sum":
		return Sum, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "count":
		return Count, nil
	default:
		return Default, errors.Errorf("unknown aggregation %q", in)
	}
}

// Resolve maps Default onto the concrete behavior.
func (a Aggregation) Resolve() Aggregation {
	if a == Default {
		return None
	}
	return a
}

// Collapses reports whether duplicates are merged into one relationship.
func (a Aggregation) Collapses() bool {
	return a.Resolve() != None
}

// Initial is the aggregated value of a group holding only value.
func (a Aggregation) Initial(value float64) float64 {
	if a.Resolve() == Count {
		return 1
	}
	return value
}

// Merge folds one more duplicate into the running aggregate.
func (a Aggregation) Merge(running, value float64) float64 {
	switch a.Resolve() {
	case Sum:
		return running + value
	case Min:
		return math.Min(running, value)
	case Max:
		return math.Max(running, value)
	case Count:
		return running + 1
	default:
		return running
	}
}

func (a Aggregation) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

func (a *Aggregation) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseAggregation(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
