package main

import (
	"context"
	"log"
	"os"

	"github.com/synthgraph/symgen/cmd/symgencli"
)

func main() {
	ctx := context.Background()

	cli := symgencli.NewCLI()
	cli.RegisterCommand(symgencli.NewGenerateCommand())

	if err := cli.Run(ctx, os.Args[1:]); err != nil {
		log.Printf("symgen: %v", err)
		os.Exit(1)
	}
}
