// Package testsupport provides shared helpers for package tests: temp-dir
// backed configs and store constructors with cleanup registered.
package testsupport
