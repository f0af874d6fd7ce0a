// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/lumen/core"
)

func TestZeroTimeConfigurationStillTicks(t *testing.T) {
	// Both intervals default to unlimited when unset; neither ticker may
	// reject its interval.
	tm := core.NewTime(core.TimeConfiguration{})

	require.NotNil(t, tm.FpsTicker())
	require.NotNil(t, tm.EventTicker())
	assert.Zero(t, tm.Fps())

	tm.FpsTicker().Stop()
	tm.EventTicker().Stop()
}

func TestConfiguredIntervalsAreKept(t *testing.T) {
	tm := core.NewTime(core.TimeConfiguration{
		FramesPerSecond: 60,
		EventPollDelay:  2,
	})

	assert.Equal(t, 60, tm.Fps())
	require.NotNil(t, tm.FpsTicker())
	require.NotNil(t, tm.EventTicker())

	tm.FpsTicker().Stop()
	tm.EventTicker().Stop()
}
