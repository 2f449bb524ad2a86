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
	"strings"

	"github.com/pkg/errors"
)

// Orientation controls in which direction an input relationship is stored.
type Orientation int

const (
	// Natural stores (source, target) under source.
	Natural Orientation = iota
	// Reverse stores (source, target) under target, pointing back to source.
	Reverse
	// Undirected stores both directions. A self-loop is therefore stored
	// twice for the same node.
	Undirected
)

func (o Orientation) String() string {
	switch o {
	case Natural:
		return "natural"
	case Reverse:
		return "reverse"
	case Undirected:
		return "undirected"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}

func ParseOrientation(in string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "", "natural":
		return Natural, nil
	case "reverse":
		return Reverse, nil
	case "undirected":
		return Undirected, nil
	default:
		return Natural, errors.Errorf("unknown orientation %q, expected one of "+
			"natural, reverse, undirected", in)
	}
}

// MarshalYAML and UnmarshalYAML let orientations appear as plain strings in
// config files.
func (o Orientation) MarshalYAML() (interface{}, error) {
	return o.String(), nil
}

func (o *Orientation) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseOrientation(raw)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
