package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Level
	}{
		{name: "default", input: "default", want: Default},
		{name: "trusted", input: "trusted", want: Trusted},
		{name: "internal", input: "internal", want: Internal},
		{name: "empty", input: "", want: Default},
		{name: "unknown", input: "bogus", want: Default},
		{name: "case mismatch", input: "Internal", want: Default},
		{name: "padded", input: " trusted", want: Default},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.input))
		})
	}
}

func TestParseLevelReportsRecognition(t *testing.T) {
	_, ok := ParseLevel("bogus")
	assert.False(t, ok)

	level, ok := ParseLevel("internal")
	assert.True(t, ok)
	assert.Equal(t, Internal, level)
}

func TestLevelOrdering(t *testing.T) {
	assert.Less(t, int(Default), int(Trusted))
	assert.Less(t, int(Trusted), int(Internal))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "default", Default.String())
	assert.Equal(t, "trusted", Trusted.String())
	assert.Equal(t, "internal", Internal.String())
	assert.Equal(t, "default", Level(42).String())
}

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		cap   Capability
		want  bool
	}{
		{name: "default reads device info", level: Default, cap: CapGetDeviceInfo, want: true},
		{name: "default cannot flip container ready", level: Default, cap: CapSetContainerAppReady, want: false},
		{name: "trusted cannot flip container ready", level: Trusted, cap: CapSetContainerAppReady, want: false},
		{name: "internal flips container ready", level: Internal, cap: CapSetContainerAppReady, want: true},
		{name: "default cannot keep alive", level: Default, cap: CapKeepAlive, want: false},
		{name: "trusted keeps alive", level: Trusted, cap: CapKeepAlive, want: true},
		{name: "internal keeps alive", level: Internal, cap: CapKeepAlive, want: true},
		{name: "unknown capability", level: Internal, cap: Capability("formatDisk"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowed(tt.level, tt.cap))
		})
	}
}

type classified Level

func (c classified) TrustLevel() Level { return Level(c) }

func TestIsAllowedFor(t *testing.T) {
	assert.True(t, IsAllowedFor(classified(Default), CapIdentifier))
	assert.False(t, IsAllowedFor(classified(Default), CapKeepAlive))
	assert.True(t, IsAllowedFor(classified(Trusted), CapKeepAlive))
	assert.False(t, IsAllowedFor(classified(Trusted), Capability("noSuchCapability")))

	for _, c := range Capabilities() {
		for _, level := range []Level{Default, Trusted} {
			assert.Equal(t, IsAllowed(level, c), IsAllowedFor(classified(level), c), "%s at %s", c, level)
		}
	}
}

func TestBogusDeclarationIsDeniedElevatedCapability(t *testing.T) {
	level := Classify("bogus")
	assert.False(t, IsAllowed(level, CapSetContainerAppReady))
}

func TestCapabilitiesSorted(t *testing.T) {
	caps := Capabilities()
	assert.NotEmpty(t, caps)
	for i := 1; i < len(caps); i++ {
		assert.Less(t, string(caps[i-1]), string(caps[i]))
	}

	for _, c := range caps {
		_, ok := Minimum(c)
		assert.True(t, ok, "capability %s should have a minimum", c)
	}
}
