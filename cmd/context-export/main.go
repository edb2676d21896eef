// context-export renders the formatted financial context for the configured
// snapshot to stdout, for inspecting exactly what the assistant is given.
package main

import (
	"context"
	"fmt"

	"finchat/internal/cli"
	"finchat/internal/prompt"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	snapshot := cli.LoadSnapshot(ctx, logger, cfg)

	fmt.Println(prompt.FormatSnapshot(snapshot))
}
