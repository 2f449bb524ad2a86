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

package errors

import (
	"errors"
	"fmt"
)

var OutOfMemory = errors.New("not enough memory")

// IsTransient reports whether retrying the failed operation later, e.g. once
// memory was freed, may succeed.
func IsTransient(err error) bool {
	return errors.Is(err, OutOfMemory)
}

func NewOutOfMemory(msg string) error {
	return fmt.Errorf("%s: %w", msg, OutOfMemory)
}

// NewOutOfMemoryf is NewOutOfMemory with a formatted message.
func NewOutOfMemoryf(format string, args ...any) error {
	return NewOutOfMemory(fmt.Sprintf(format, args...))
}
