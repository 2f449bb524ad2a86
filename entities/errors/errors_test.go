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
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorGroupWrapper(t *testing.T) {
	t.Run("a panic becomes an error", func(t *testing.T) {
		logger, hook := test.NewNullLogger()

		eg := NewErrorGroupWrapper(logger, "partition")
		eg.Go(func() error { return nil })
		eg.Go(func() error { panic("boom") }, 3)

		err := eg.Wait()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, "recover_from_panic", hook.LastEntry().Data["action"])
	})

	t.Run("the first error cancels the context", func(t *testing.T) {
		logger, _ := test.NewNullLogger()
		failure := errors.New("first")

		eg, ctx := NewErrorGroupWithContextWrapper(context.Background(), logger)
		eg.SetLimit(2)

		var cancelled atomic.Bool
		eg.Go(func() error { return failure })
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				cancelled.Store(true)
			case <-time.After(10 * time.Second):
			}
			return nil
		})

		assert.ErrorIs(t, eg.Wait(), failure)
		assert.True(t, cancelled.Load())
	})
}

func TestOutOfMemory(t *testing.T) {
	err := NewOutOfMemoryf("need %d bytes", 10)
	assert.True(t, IsTransient(err))
	assert.EqualError(t, err, "need 10 bytes: not enough memory")
	assert.False(t, IsTransient(errors.New("other")))
}
