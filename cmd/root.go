package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/BioHazard786/roomdrop/internal/config"
	"github.com/BioHazard786/roomdrop/internal/ui"
	"github.com/BioHazard786/roomdrop/internal/version"
	"github.com/spf13/cobra"
)

// connection flags shared by send and receive
var (
	flagServer   string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
	flagRelay    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "roomdrop",
	Short: "Send a file directly to another peer through a shared room",
	Long: `roomdrop transfers a file directly between two peers over a WebRTC data channel.
Both peers join the same room on a signaling server, which only brokers the
handshake; file bytes never pass through it. Completed and failed transfers
are recorded in the server's ledger.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.Options{
		ServerURL:  flagServer,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
		ForceRelay: flagRelay,
	})
}

func addConnectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagServer, "server", "", "Signaling server websocket URL (env ROOMDROP_SERVER)")
	cmd.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server (env STUN_SERVER)")
	cmd.Flags().StringVarP(&flagTURN, "turn", "t", "", "TURN server host (env TURN_SERVER)")
	cmd.Flags().StringVarP(&flagTURNUser, "turn-user", "u", "", "TURN username (env TURN_USERNAME)")
	cmd.Flags().StringVarP(&flagTURNPass, "turn-pass", "p", "", "TURN password (env TURN_PASSWORD)")
	cmd.Flags().BoolVarP(&flagRelay, "relay", "r", false, "Force relay mode")
}
