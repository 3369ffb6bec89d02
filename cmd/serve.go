package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/df07/go-global-illumination/web/server"
	"github.com/urfave/cli"
)

// ServeFlags are the serve command's own flags
func ServeFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "port, p",
			Value: 8080,
			Usage: "port to serve on",
		},
		cli.StringFlag{
			Name:  "scenes",
			Value: "scenes",
			Usage: "directory holding the scene files",
		},
	}
}

// Serve runs the HTTP render server until interrupted.
func Serve(ctx *cli.Context) error {
	setupLogging(ctx)

	srv := server.NewServer(ctx.Int("port"), ctx.String("scenes"))

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	select {
	case err := <-errChan:
		return err
	case <-interrupt:
		logger.Notice("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
