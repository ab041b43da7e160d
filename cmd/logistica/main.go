package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imartinezt/logistica-front/internal/cli"
	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	if err := c.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, cli.ErrorLine(apperrors.UserMessage(err)))
		c.Logger.Debug("command failed", "code", apperrors.GetCode(err), "err", err)
		os.Exit(1)
	}
}
