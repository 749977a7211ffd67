package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	labelColor   = color.New(color.FgCyan)
	failureColor = color.New(color.FgRed, color.Bold)
)

func printSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	labelColor.Fprintf(w, "%s: ", label)
	fmt.Fprintln(w, value)
}

func printFailure(w io.Writer, err error) {
	failureColor.Fprintf(w, "error: %s\n", err)
}
