package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serpent-go/boulder/pkg/bucket"
	"github.com/serpent-go/boulder/pkg/capability"
	"github.com/serpent-go/boulder/pkg/collect"
)

func TestIgnoreBlockedDropsNonUsrPaths(t *testing.T) {
	b := &bucket.Bucket{}
	pi := collect.PathInfo{TargetPath: "etc/foo.conf", UnderUsr: false}
	result, reason, err := IgnoreBlocked(b, &pi, func(collect.PathInfo) {})
	require.NoError(t, err)
	assert.Equal(t, IgnoreFile, result)
	assert.Equal(t, "non /usr file", reason)
}

func TestIgnoreBlockedDropsLibtoolFiles(t *testing.T) {
	b := &bucket.Bucket{}
	pi := collect.PathInfo{TargetPath: "lib/libfoo.la", UnderUsr: true}
	result, reason, err := IgnoreBlocked(b, &pi, func(collect.PathInfo) {})
	require.NoError(t, err)
	assert.Equal(t, IgnoreFile, result)
	assert.Equal(t, "libtool file", reason)
}

func TestBinaryInsertsProviders(t *testing.T) {
	b := &bucket.Bucket{}
	pi := collect.PathInfo{TargetPath: "bin/hello", UnderUsr: true}
	result, _, err := Binary(b, &pi, func(collect.PathInfo) {})
	require.NoError(t, err)
	assert.Equal(t, NextHandler, result)
	assert.Contains(t, b.Providers.Items(), capability.Capability{Kind: capability.Binary, Name: "hello"})
}

func TestBinaryInsertsSystemBinaryForSbin(t *testing.T) {
	b := &bucket.Bucket{}
	pi := collect.PathInfo{TargetPath: "sbin/init-helper", UnderUsr: true}
	_, _, err := Binary(b, &pi, func(collect.PathInfo) {})
	require.NoError(t, err)
	assert.Contains(t, b.Providers.Items(), capability.Capability{Kind: capability.SystemBinary, Name: "init-helper"})
}

func TestCMakeInsertsProviderButNotForMixedCaseSuffix(t *testing.T) {
	b := &bucket.Bucket{}

	pi := collect.PathInfo{TargetPath: "lib/cmake/foo/fooConfig.cmake"}
	_, _, err := CMake(b, &pi, func(collect.PathInfo) {})
	require.NoError(t, err)
	assert.Contains(t, b.Providers.Items(), capability.Capability{Kind: capability.CMake, Name: "foo"})

	b2 := &bucket.Bucket{}
	pi2 := collect.PathInfo{TargetPath: "lib/cmake/foo/foo-Config.cmake"}
	_, _, err = CMake(b2, &pi2, func(collect.PathInfo) {})
	require.NoError(t, err)
	assert.Empty(t, b2.Providers.Items())
}

func TestChainRunIncludesUnmatchedViaCatchAll(t *testing.T) {
	b := &bucket.Bucket{Paths: []collect.PathInfo{
		{TargetPath: "share/doc/hello/README", UnderUsr: true},
	}}
	chain := Default()
	ignored, err := chain.Run(b)
	require.NoError(t, err)
	assert.Empty(t, ignored)
	require.Len(t, b.Paths, 1)
}

func TestChainRunDropsNonUsrAndStopsChain(t *testing.T) {
	b := &bucket.Bucket{Paths: []collect.PathInfo{
		{TargetPath: "etc/foo.conf", UnderUsr: false},
	}}
	chain := Default()
	ignored, err := chain.Run(b)
	require.NoError(t, err)
	require.Len(t, ignored, 1)
	assert.Equal(t, "non /usr file", ignored[0].Reason)
	assert.Empty(t, b.Paths)
}

func TestChainRunIncludesEachFileAtMostOnce(t *testing.T) {
	b := &bucket.Bucket{Paths: []collect.PathInfo{
		{TargetPath: "bin/hello", UnderUsr: true},
	}}
	chain := Default()
	_, err := chain.Run(b)
	require.NoError(t, err)
	require.Len(t, b.Paths, 1)
}
