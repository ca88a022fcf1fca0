//go:build release

package event

const assertions = false
