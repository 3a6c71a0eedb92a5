package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChuLiYu/ringmesh/internal/registry"
)

var registryConfigFile string

// BuildRegistryCLI builds the cmd/registry command tree. Its single
// "serve" command starts the registry process and then reads operator
// commands from stdin, one per line: "setup-overlay <poolSize>" and
// "start <rounds>" (spec.md §6's documented CLI surface). A line-based
// console is the natural shape here since both commands act on the one
// long-lived registry instance a process launch creates, rather than
// each being its own process invocation.
func BuildRegistryCLI() *cobra.Command {
	root := &cobra.Command{
		Use:     "ringmesh-registry",
		Short:   "Ring overlay registry",
		Version: "1.0.0",
	}
	root.PersistentFlags().StringVarP(&registryConfigFile, "config", "c", "configs/registry.yaml", "config file path")
	root.AddCommand(buildServeCommand())
	return root
}

func buildServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the registry and accept setup-overlay/start commands on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRegistry(registryConfigFile, cmd.InOrStdin())
		},
	}
}

func serveRegistry(configPath string, stdin io.Reader) error {
	cfg, err := LoadRegistryConfig(configPath)
	if err != nil {
		return err
	}

	r, err := registry.New(cfg.Registry.Host, cfg.Registry.Port, cfg.Registry.ExpectedSize)
	if err != nil {
		return err
	}
	log.Info("registry: listening", "addr", r.Addr().String())

	console := &registryConsole{registry: r, expected: cfg.Registry.ExpectedSize}
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		if err := console.dispatch(scanner.Text()); err != nil {
			log.Error("registry: command failed", "error", err)
		}
	}
	return scanner.Err()
}

type registryConsole struct {
	registry *registry.Registry
	expected int
	overlaid bool
}

func (c *registryConsole) dispatch(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "setup-overlay":
		if len(fields) != 2 {
			return fmt.Errorf("cli: usage: setup-overlay <poolSize>")
		}
		poolSize, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("cli: invalid poolSize: %w", err)
		}
		return c.setupOverlay(poolSize)

	case "start":
		if len(fields) != 2 {
			return fmt.Errorf("cli: usage: start <rounds>")
		}
		rounds, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("cli: invalid rounds: %w", err)
		}
		return c.start(rounds)

	default:
		return fmt.Errorf("cli: unknown command %q", fields[0])
	}
}

func (c *registryConsole) setupOverlay(poolSize int) error {
	log.Info("registry: waiting for nodes to register", "expected", c.expected)
	c.registry.AwaitAllRegistered()

	if err := c.registry.SetupOverlay(int32(poolSize)); err != nil {
		return err
	}
	c.overlaid = true
	log.Info("registry: overlay ready")
	return nil
}

func (c *registryConsole) start(rounds int) error {
	if !c.overlaid {
		return fmt.Errorf("cli: run setup-overlay before start")
	}
	if err := c.registry.RunRounds(rounds); err != nil {
		return err
	}
	_, err := c.registry.CollectSummaries()
	return err
}
