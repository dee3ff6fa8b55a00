package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TahaNaqv/counter-tui/internal/config"
	"github.com/TahaNaqv/counter-tui/internal/counter"
	"github.com/TahaNaqv/counter-tui/internal/runner"
	"github.com/TahaNaqv/counter-tui/internal/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

func (c *cli) addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address [owner]",
		Short: "Print the counter address derived for a wallet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			owner, err := c.resolveOwner(cfg, args)
			if err != nil {
				return err
			}
			programID, _ := cfg.ProgramID()
			addr, bump := counter.DeriveAddress(owner, programID)
			c.cliLogger(cmd, cfg).Debug("derived address", "owner", owner, "program", programID, "bump", bump)
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [owner]",
		Short: "Print the current count for a wallet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			owner, err := c.resolveOwner(cfg, args)
			if err != nil {
				return err
			}
			programID, _ := cfg.ProgramID()
			logger := c.cliLogger(cmd, cfg)

			addr, _ := counter.DeriveAddress(owner, programID)
			snap, err := counter.Fetch(cmdContext(cmd), c.newTransport(cfg, logger), addr, counter.CounterDiscriminator())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describe(snap))
			return nil
		},
	}
}

func (c *cli) execCmd() *cobra.Command {
	names := make([]string, len(counter.Operations))
	for i, op := range counter.Operations {
		names[i] = string(op)
	}
	return &cobra.Command{
		Use:       "exec <" + strings.Join(names, "|") + ">",
		Short:     "Run one operation with the first configured keypair and print the result",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := counter.ParseOperation(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			programID, _ := cfg.ProgramID()
			logger := c.cliLogger(cmd, cfg)

			src, err := wallet.NewSource(cfg.Wallet.Keypairs, cfg.Wallet.Owner)
			if err != nil {
				return err
			}
			acct, err := src.Open(0)
			if err != nil {
				return err
			}
			if !acct.SignerReady() {
				return fmt.Errorf("%s: %w", acct.Identity, runner.ErrSignerNotReady)
			}

			r := runner.New(logger)
			r.SetSession(runner.NewSession(counter.NewClient(c.newTransport(cfg, logger), acct.Signer, programID)))
			if _, err := r.Load(cmdContext(cmd)); err != nil {
				return err
			}
			snap, err := r.Run(cmdContext(cmd), op)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describe(snap))
			return nil
		},
	}
}

// resolveOwner returns the wallet a read-only command applies to: the argument,
// else the first configured keypair, else the configured owner.
func (c *cli) resolveOwner(cfg *config.Config, args []string) (solana.PublicKey, error) {
	if len(args) == 1 {
		pk, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("owner %q: %w", args[0], err)
		}
		return pk, nil
	}
	src, err := wallet.NewSource(cfg.Wallet.Keypairs, cfg.Wallet.Owner)
	if err != nil {
		return solana.PublicKey{}, err
	}
	acct, err := src.Open(0)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return acct.Identity, nil
}

func (c *cli) cliLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level, _ := cfg.LogLevel()
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func cmdContext(cmd *cobra.Command) context.Context {
	if cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func describe(snap counter.Snapshot) string {
	if !snap.Present {
		return "not initialized"
	}
	return fmt.Sprintf("%d", snap.Count)
}
