/*
 * Copyright 2026 The Sightlab Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package memcore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sightlab/memcore/bytesize"
	"github.com/sightlab/memcore/policy"
)

func TestRegisterAndInfo(t *testing.T) {
	m := NewManager(t.TempDir())
	h, err := m.RegisterBuffer(128)
	require.NoError(t, err)

	info, ok := m.Info(h)
	require.True(t, ok)
	require.Equal(t, bytesize.Size(128), info.Size)
	require.True(t, info.Resident)
	require.True(t, info.OwnsBuffer)
	require.Zero(t, info.LockCount)
}

func TestDumpAndRestoreRoundTrip(t *testing.T) {
	m := NewManager(t.TempDir())
	h, err := m.RegisterBuffer(64)
	require.NoError(t, err)

	pin, err := m.Lock(h)
	require.NoError(t, err)
	for i := range pin.Bytes {
		pin.Bytes[i] = byte(i)
	}
	pin.Unlock()

	require.True(t, m.Dump(h))
	info, _ := m.Info(h)
	require.False(t, info.Resident)
	require.NotEmpty(t, info.ScratchPath)

	require.True(t, m.Restore(h))
	info, _ = m.Info(h)
	require.True(t, info.Resident)
	require.Empty(t, info.ScratchPath)

	pin2, err := m.Lock(h)
	require.NoError(t, err)
	for i, b := range pin2.Bytes {
		require.Equal(t, byte(i), b)
	}
	pin2.Unlock()
}

func TestDumpRefusesLockedBuffer(t *testing.T) {
	m := NewManager(t.TempDir())
	h, err := m.RegisterBuffer(16)
	require.NoError(t, err)
	pin, err := m.Lock(h)
	require.NoError(t, err)

	require.False(t, m.Dump(h))
	pin.Unlock()
	require.True(t, m.Dump(h))
}

func TestDumpRefusesEmptyBuffer(t *testing.T) {
	m := NewManager(t.TempDir())
	h, err := m.RegisterBuffer(0)
	require.NoError(t, err)
	require.False(t, m.Dump(h))
}

func TestLockRestoresNonResidentBuffer(t *testing.T) {
	m := NewManager(t.TempDir())
	h, err := m.RegisterBuffer(32)
	require.NoError(t, err)
	require.True(t, m.Dump(h))

	pin, err := m.Lock(h)
	require.NoError(t, err)
	require.Len(t, pin.Bytes, 32)
	info, _ := m.Info(h)
	require.True(t, info.Resident)
	pin.Unlock()
}

func TestUnlockIsIdempotent(t *testing.T) {
	m := NewManager(t.TempDir())
	h, err := m.RegisterBuffer(8)
	require.NoError(t, err)
	pin, err := m.Lock(h)
	require.NoError(t, err)

	pin.Unlock()
	pin.Unlock() // must not underflow lockCount or panic

	info, _ := m.Info(h)
	require.Zero(t, info.LockCount)
}

func TestUnregisterRefusesLockedBuffer(t *testing.T) {
	m := NewManager(t.TempDir())
	h, err := m.RegisterBuffer(8)
	require.NoError(t, err)
	pin, err := m.Lock(h)
	require.NoError(t, err)

	err = m.Unregister(h)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidState)

	pin.Unlock()
	require.NoError(t, m.Unregister(h))
}

func TestSetSizeRestoresThenResizes(t *testing.T) {
	m := NewManager(t.TempDir())
	h, err := m.RegisterBuffer(16)
	require.NoError(t, err)
	require.True(t, m.Dump(h))

	require.NoError(t, m.SetSize(h, 64))
	info, _ := m.Info(h)
	require.True(t, info.Resident)
	require.Equal(t, bytesize.Size(64), info.Size)
}

func TestReallocateRestoresThenResizes(t *testing.T) {
	m := NewManager(t.TempDir())
	h, err := m.RegisterBuffer(16)
	require.NoError(t, err)
	require.True(t, m.Dump(h))

	require.NoError(t, m.Reallocate(h, 48))
	info, _ := m.Info(h)
	require.True(t, info.Resident)
	require.Equal(t, bytesize.Size(48), info.Size)
}

func TestSwapExchangesBuffers(t *testing.T) {
	m := NewManager(t.TempDir())
	a, err := m.RegisterBuffer(4)
	require.NoError(t, err)
	b, err := m.RegisterBuffer(8)
	require.NoError(t, err)

	require.NoError(t, m.Swap(a, b))
	infoA, _ := m.Info(a)
	infoB, _ := m.Info(b)
	require.Equal(t, bytesize.Size(8), infoA.Size)
	require.Equal(t, bytesize.Size(4), infoB.Size)
}

func TestSwapRefusesLockedBuffer(t *testing.T) {
	m := NewManager(t.TempDir())
	a, err := m.RegisterBuffer(4)
	require.NoError(t, err)
	b, err := m.RegisterBuffer(8)
	require.NoError(t, err)

	pin, err := m.Lock(a)
	require.NoError(t, err)
	err = m.Swap(a, b)
	require.Error(t, err)
	pin.Unlock()
}

func TestBarrierPolicyDrivesEviction(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	barrier := policy.NewBarrier(m.Access())
	require.NoError(t, policy.ApplyParams(barrier, "barrier=300B"))
	m.SetPolicy(barrier)

	h1, err := m.RegisterBuffer(200)
	require.NoError(t, err)
	h2, err := m.RegisterBuffer(200)
	require.NoError(t, err)

	info1, _ := m.Info(h1)
	info2, _ := m.Info(h2)
	require.False(t, info1.Resident && info2.Resident, "barrier should have dumped the oldest buffer once alive exceeded 300B")
}

func TestStatsAndStateBreakdown(t *testing.T) {
	m := NewManager(t.TempDir())
	h1, err := m.RegisterBuffer(10)
	require.NoError(t, err)
	_, err = m.RegisterBuffer(20)
	require.NoError(t, err)
	require.True(t, m.Dump(h1))

	stats := m.Stats()
	require.Equal(t, bytesize.Size(30), stats.TotalManaged)
	require.Equal(t, bytesize.Size(10), stats.TotalDumped)
	require.Equal(t, 2, stats.NumBuffers)

	breakdown := m.StatsByState()
	require.Equal(t, 1, breakdown.NonResident)
	require.Equal(t, 1, breakdown.ResidentUnlocked)
}

func TestSetScratchDirRequiresEmptyRegistry(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.RegisterBuffer(4)
	require.NoError(t, err)
	require.Error(t, m.SetScratchDir(t.TempDir()))
}
