package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/app"
	"github.com/emiliopalmerini/helix-console/internal/health"
	"github.com/emiliopalmerini/helix-console/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web console",
	Long: `Start the web console: cases, templates, runner, reports and settings.

The batch the backend is still running, if any, is picked up on start.

Examples:
  helix serve                  # Listen on HELIX_LISTEN_ADDR (default :8080)
  helix serve --addr :3000     # Listen on port 3000`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (HELIX_LISTEN_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := NewAppContext(ctx, withJournal(), verbose())
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.Config.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	poller := health.NewPoller(a.API, a.Config.HealthInterval, a.Logger)
	opts := []web.Option{
		web.WithHealth(poller),
		web.WithArchive(a.Archive),
		web.WithLogger(a.Logger),
		web.WithAPIURL(a.Config.APIURL),
		web.WithCaseLimit(a.Config.PageSize),
	}
	if a.Journal != nil {
		opts = append(opts, web.WithJournal(a.Journal))
	}
	server := web.NewServer(a.API, a.Console, addr, opts...)

	fmt.Fprintf(cmd.ErrOrStderr(), "Helix console on http://%s (backend %s)\n", displayAddr(addr), a.Config.APIURL)

	rt := &app.Runtime{Server: server, Monitor: poller, Restorer: a.Console, Logger: a.Logger}
	if err := rt.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	a.Logger.Info("console stopped", zap.String("addr", addr))
	return nil
}

// displayAddr turns ":8080" into a clickable localhost address.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

// signalContext cancels on Ctrl-C for the long-running commands.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
