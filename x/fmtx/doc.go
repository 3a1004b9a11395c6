// Package fmtx is the formatting front used by the HAL's logging. Host builds
// forward to fmt; MCU builds use a small allocation-light formatter that
// covers the verbs the HAL emits.
package fmtx
