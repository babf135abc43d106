// FitCheck decides whether the objects in a photo (or a drawing, or a
// vertex table) can be laid inside the container shape pictured with them,
// and shows one arrangement when they can.
//
// Usage:
//
//	fitcheck -image desk.jpg -pdf report.pdf
//	fitcheck -dxf scene.dxf -config fitcheck.yaml -workers 4
//	fitcheck -csv shapes.csv -compare
//	fitcheck -image desk.jpg -preset paper -timeout 30s
//	fitcheck -history -db ~/.fitcheck/history.db
//
// Exit status: 0 the objects fit, 1 they do not, 2 the input could not be
// analysed, 3 the search ran out of time before reaching a verdict.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
