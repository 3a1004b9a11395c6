//go:build !baremetal

package fmtx

import (
	"fmt"
	"io"
)

func Sprintf(format string, a ...any) string                    { return fmt.Sprintf(format, a...) }
func Fprintf(w io.Writer, format string, a ...any) (int, error) { return fmt.Fprintf(w, format, a...) }
func Errorf(format string, a ...any) error                      { return fmt.Errorf(format, a...) }
