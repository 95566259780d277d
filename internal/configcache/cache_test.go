// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package configcache

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name string
}

func TestGetOrLoad_CachingBehavior(t *testing.T) {
	c := New(5 * time.Minute)

	var calls atomic.Int32
	load := func() (*doc, error) {
		calls.Add(1)
		return &doc{Name: "loaded"}, nil
	}

	t.Run("first call loads", func(t *testing.T) {
		v, err := GetOrLoad(c, "k", load)
		require.NoError(t, err)
		assert.Equal(t, "loaded", v.Name)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("second call returns the same value without loading", func(t *testing.T) {
		first, err := GetOrLoad(c, "k", load)
		require.NoError(t, err)
		second, err := GetOrLoad(c, "k", load)
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestInvalidate_ForcesReload(t *testing.T) {
	c := New(5 * time.Minute)

	version := "old"
	load := func() (*doc, error) { return &doc{Name: version}, nil }

	v, err := GetOrLoad(c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, "old", v.Name)

	version = "new"
	v, err = GetOrLoad(c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, "old", v.Name, "still inside TTL and not invalidated")

	c.Invalidate("k")
	v, err = GetOrLoad(c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, "new", v.Name)
}

func TestGetOrLoad_ExpiresAfterTTL(t *testing.T) {
	c := New(30 * time.Millisecond)

	var calls atomic.Int32
	load := func() (int, error) { return int(calls.Add(1)), nil }

	v, err := GetOrLoad(c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	time.Sleep(80 * time.Millisecond)

	v, err = GetOrLoad(c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestGetOrLoad_ErrorsAreNotCached(t *testing.T) {
	c := New(5 * time.Minute)

	boom := errors.New("disk gone")
	_, err := GetOrLoad(c, "k", func() (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
	assert.Nil(t, c.cache.Get("k"), "a failed load must leave no entry")

	v, err := GetOrLoad(c, "k", func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestGetOrLoad_TypeMismatch(t *testing.T) {
	c := New(5 * time.Minute)

	_, err := GetOrLoad(c, "k", func() (string, error) { return "text", nil })
	require.NoError(t, err)

	_, err = GetOrLoad(c, "k", func() (int, error) { return 1, nil })
	assert.Error(t, err)
}

func TestNew_DefaultTTL(t *testing.T) {
	assert.Equal(t, 60*time.Second, DefaultTTL)
	c := New(0)
	var calls int
	load := func() (int, error) { calls++; return calls, nil }
	_, err := GetOrLoad(c, "k", load)
	require.NoError(t, err)
	v, err := GetOrLoad(c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "zero TTL falls back to the default rather than expiring at once")
}
