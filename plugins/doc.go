// Package plugins holds remote component implementations. Each subpackage is
// a component bundle written against remotehost/pkg/hostapi only; the
// architecture test beside this file rejects imports of the host
// implementation from non-test plugin code.
package plugins
