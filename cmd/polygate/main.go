// cmd/polygate/main.go
package main

import (
	"go.uber.org/fx"

	"github.com/joeydtaylor/polygate/pkg/serverfx"
)

func main() {
	fx.New(
		serverfx.Module(
			serverfx.WithService("polygate"),
		),
	).Run()
}
