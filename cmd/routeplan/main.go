package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"agri-route-service/internal/app"
	"agri-route-service/internal/config"
	"agri-route-service/internal/platform/obs"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "routeplan",
	Short: "plan plant delivery routes from the command line",
	Long: `
routeplan geocodes farmer orders, clusters them into vehicle loads and sequences
each route, using the same configuration (.env and environment) as the server.
`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and wires the application for one command run.
func setup(cmd *cobra.Command) (context.Context, *app.App, error) {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	ctx := obs.WithRequestID(cmd.Context(), "cli-"+uuid.NewString()[:8])
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return ctx, a, nil
}
