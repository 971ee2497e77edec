// Package fuzztests houses Go fuzz harnesses that drive the IR builder with
// arbitrary instruction scripts and push the result through the validator
// and both backends. Inputs must never panic, and any module the validator
// accepts must materialize.
package fuzztests
