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
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrorGroupWrapper is an errgroup.Group that turns a panicking task into an
// error instead of crashing the process.
type ErrorGroupWrapper struct {
	*errgroup.Group
	logger    logrus.FieldLogger
	variables []any

	mu          sync.Mutex
	returnError error
	cancel      context.CancelFunc
}

// NewErrorGroupWrapper creates a group without a context. vars are logged
// alongside a recovered panic.
func NewErrorGroupWrapper(logger logrus.FieldLogger, vars ...any) *ErrorGroupWrapper {
	return &ErrorGroupWrapper{
		Group:     new(errgroup.Group),
		logger:    logger,
		variables: vars,
	}
}

// NewErrorGroupWithContextWrapper creates a group whose context is cancelled
// as soon as the first task fails or panics.
func NewErrorGroupWithContextWrapper(ctx context.Context, logger logrus.FieldLogger,
	vars ...any,
) (*ErrorGroupWrapper, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)
	return &ErrorGroupWrapper{
		Group:     group,
		logger:    logger,
		variables: vars,
		cancel:    cancel,
	}, ctx
}

// Go runs f in the group with panic recovery.
func (egw *ErrorGroupWrapper) Go(f func() error, localVars ...any) {
	egw.Group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				egw.logger.WithFields(logrus.Fields{
					"action":     "recover_from_panic",
					"local_vars": localVars,
					"vars":       egw.variables,
				}).Errorf("Recovered from panic: %v", r)
				debug.PrintStack()

				err = fmt.Errorf("panic occurred: %v", r)
				egw.setReturnError(err)
			}
		}()
		return f()
	})
}

// Wait waits for all tasks and returns the first error.
func (egw *ErrorGroupWrapper) Wait() error {
	err := egw.Group.Wait()
	if egw.cancel != nil {
		egw.cancel()
	}
	if err != nil {
		return err
	}

	egw.mu.Lock()
	defer egw.mu.Unlock()
	return egw.returnError
}

func (egw *ErrorGroupWrapper) setReturnError(err error) {
	egw.mu.Lock()
	defer egw.mu.Unlock()
	if egw.returnError == nil {
		egw.returnError = err
	}
}
