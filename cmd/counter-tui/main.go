package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/TahaNaqv/counter-tui/internal/app"
	"github.com/TahaNaqv/counter-tui/internal/client"
	"github.com/TahaNaqv/counter-tui/internal/config"
	"github.com/TahaNaqv/counter-tui/internal/counter"
	"github.com/TahaNaqv/counter-tui/internal/runner"
	"github.com/TahaNaqv/counter-tui/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(defaultCLI()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries flag values and the collaborators commands are built from.
type cli struct {
	configPath string
	rpcURL     string
	wsURL      string
	programID  string
	keypairs   []string
	owner      string
	logFile    string
	logLevel   string
	noWatch    bool

	env          config.Env
	newTransport func(cfg *config.Config, logger *slog.Logger) counter.Transport
}

func defaultCLI() *cli {
	return &cli{
		env: os.LookupEnv,
		newTransport: func(cfg *config.Config, logger *slog.Logger) counter.Transport {
			return client.NewRPCTransport(cfg.RPC.URL,
				client.WithConfirmPolling(cfg.Confirm.PollInterval, cfg.Confirm.Timeout),
				client.WithLogger(logger),
			)
		},
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "counter-tui",
		Short: "Terminal client for the on-chain counter program",
		Long: `counter-tui shows the counter owned by your wallet and lets you
initialize, change and close it. Each wallet's counter lives at an address
derived from the wallet key and the program ID.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          c.runTUI,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&c.rpcURL, "rpc-url", "", "JSON-RPC endpoint (env "+config.EnvRPCURL+")")
	pf.StringVar(&c.wsURL, "ws-url", "", "pubsub WebSocket endpoint, derived from --rpc-url when empty (env "+config.EnvWSURL+")")
	pf.StringVar(&c.programID, "program-id", "", "counter program address (env "+config.EnvProgramID+")")
	pf.StringArrayVar(&c.keypairs, "keypair", nil, "keypair file, repeatable (env "+config.EnvKeypair+")")
	pf.StringVar(&c.owner, "owner", "", "read-only wallet address (env "+config.EnvOwner+")")
	pf.StringVar(&c.logFile, "log-file", "", "write logs to this file (env "+config.EnvLogFile+")")
	pf.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	pf.BoolVar(&c.noWatch, "no-watch", false, "do not subscribe to account changes")

	root.AddCommand(c.addressCmd(), c.showCmd(), c.execCmd())
	return root
}

// loadConfig layers defaults, the config file, the environment and the
// flags that were set explicitly.
func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	fl := cmd.Flags()
	path, optional := c.configPath, !fl.Changed("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(c.env)

	if fl.Changed("rpc-url") {
		cfg.RPC.URL = c.rpcURL
	}
	if fl.Changed("ws-url") {
		cfg.RPC.WSURL = c.wsURL
	}
	if fl.Changed("program-id") {
		cfg.Program.ID = c.programID
	}
	if fl.Changed("keypair") {
		cfg.Wallet.Keypairs = c.keypairs
	}
	if fl.Changed("owner") {
		cfg.Wallet.Owner = c.owner
	}
	if fl.Changed("log-file") {
		cfg.Log.File = c.logFile
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if fl.Changed("no-watch") {
		cfg.Watch.Enabled = !c.noWatch
	}

	if len(cfg.Wallet.Keypairs) == 0 && cfg.Wallet.Owner == "" {
		if kp := config.DefaultKeypair(); kp != "" {
			cfg.Wallet.Keypairs = []string{kp}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *cli) runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	programID, _ := cfg.ProgramID()
	level, _ := cfg.LogLevel()

	// The alternate screen owns the terminal, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if cfg.Log.File != "" {
		f, err := tea.LogToFile(wallet.ExpandHome(cfg.Log.File), "counter-tui")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	src, err := wallet.NewSource(cfg.Wallet.Keypairs, cfg.Wallet.Owner)
	if err != nil {
		return err
	}

	watchURL := ""
	if cfg.Watch.Enabled {
		watchURL = cfg.WebSocketURL()
	}
	logger.Info("starting", "rpc", cfg.RPC.URL, "ws", watchURL, "program", programID, "wallets", src.Len())

	m := app.New(app.Options{
		Wallets:   src,
		Transport: c.newTransport(cfg, logger),
		ProgramID: programID,
		Endpoint:  cfg.RPC.URL,
		WatchURL:  watchURL,
		Runner:    runner.New(logger),
		Logger:    logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
