// Package cli wires configuration, secrets, network and deployer into the nftst-deploy command.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Bidon15/nftst-deployer/internal/artifacts"
	"github.com/Bidon15/nftst-deployer/internal/config"
	"github.com/Bidon15/nftst-deployer/internal/deployer"
	"github.com/Bidon15/nftst-deployer/internal/network"
)

// Options holds the process-level collaborators of the command.
type Options struct {
	// Dialer defaults to an EthDialer.
	Dialer deployer.Dialer
	Stdout io.Writer
	Stderr io.Writer
}

// NewRootCmd builds the nftst-deploy command. Flags override NFTST_ env vars,
// which override deploy.yaml, which overrides the built-in defaults.
func NewRootCmd(opts Options) *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "nftst-deploy",
		Short: "Deploy the NFTst contract and print its address",
		Long: `Deploy a compiled contract to the configured network and print its address.

Secrets are read from the environment or the .env file:
  ALCHEMY_API_KEY   Alchemy API key used to build the RPC endpoint
  PRIVATE_KEY       deployer account private key

Examples:
  # Deploy NFTst to Sepolia using ./.env and ./artifacts
  nftst-deploy

  # Foundry build output, different secrets file
  nftst-deploy --artifacts ./out --env-file ./deploy.env`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v, opts)
		},
	}

	flags := cmd.Flags()
	flags.String("env-file", ".env", "dotenv file holding ALCHEMY_API_KEY and PRIVATE_KEY")
	flags.String("network", "sepolia", "target network ("+strings.Join(network.Names(), ", ")+")")
	flags.String("contract", "NFTst", "contract name, or source:Name when ambiguous")
	flags.String("artifacts", "./artifacts", "compiled artifacts directory (Hardhat or Foundry layout)")
	flags.String("solidity", "0.8.28", "expected solc version of the artifacts")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	bindFlags(v, cmd, map[string]string{
		"env_file":        "env-file",
		"network":         "network",
		"contract":        "contract",
		"paths.artifacts": "artifacts",
		"solidity":        "solidity",
		"log_level":       "log-level",
	})

	return cmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}

// Run executes the command with args and returns the process exit code.
func Run(ctx context.Context, args []string, opts Options) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	cmd := NewRootCmd(opts)
	cmd.SetArgs(args)
	cmd.SetOut(opts.Stdout)
	cmd.SetErr(opts.Stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(opts.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// Execute runs the command against the real process environment.
func Execute() int {
	return Run(context.Background(), os.Args[1:], Options{})
}

func run(ctx context.Context, v *viper.Viper, opts Options) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger, err := newLogger(opts.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}

	logger.Info("project settings",
		slog.String("network", cfg.Network),
		slog.String("contract", cfg.Contract),
		slog.String("solidity", cfg.Solidity),
		slog.Group("paths",
			slog.String("sources", cfg.Paths.Sources),
			slog.String("artifacts", cfg.Paths.Artifacts),
			slog.String("cache", cfg.Paths.Cache),
		),
	)

	if err := deploy(ctx, cfg, logger, opts); err != nil {
		logger.Error("deployment failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func deploy(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) error {
	secrets, err := config.LoadSecrets(logger, cfg.EnvFile)
	if err != nil {
		return err
	}

	net, err := network.New(cfg.Network, secrets)
	if err != nil {
		return err
	}

	d := deployer.New(deployer.Config{
		Artifacts: artifacts.NewLoader(cfg.Paths.Artifacts),
		Network:   net,
		Dialer:    opts.Dialer,
		Solidity:  cfg.Solidity,
		Logger:    logger,
	})

	result, err := d.Run(ctx, cfg.Contract)
	if err != nil {
		return err
	}

	fmt.Fprintf(opts.Stdout, "%s deployed to: %s\n", result.ContractName, result.Address.Hex())
	return nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("%w: log level %q", config.ErrInvalidConfig, level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
