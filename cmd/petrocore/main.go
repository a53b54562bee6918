package main

import (
	"context"

	"github.com/jobala/petrocore/cmd/petrocore/cli"
)

func main() {
	cli.Init("petrocore").MustExecute(context.Background())
}
