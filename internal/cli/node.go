package cli

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ChuLiYu/ringmesh/internal/node"
	"github.com/ChuLiYu/ringmesh/pkg/task"
)

var nodeConfigFile string

// BuildNodeCLI builds the cmd/node command tree: a single "run" command
// that registers with the registry and runs rounds forever.
func BuildNodeCLI() *cobra.Command {
	root := &cobra.Command{
		Use:     "ringmesh-node",
		Short:   "Ring overlay compute node",
		Version: "1.0.0",
	}
	root.PersistentFlags().StringVarP(&nodeConfigFile, "config", "c", "configs/node.yaml", "config file path")
	root.AddCommand(buildNodeRunCommand())
	return root
}

func buildNodeRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Register with the registry and run rounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(nodeConfigFile)
		},
	}
}

func runNode(configPath string) error {
	cfg, err := LoadNodeConfig(configPath)
	if err != nil {
		return err
	}

	registryAddr, err := task.ParseAddress(cfg.Registry.Address)
	if err != nil {
		return fmt.Errorf("cli: invalid registry address: %w", err)
	}

	if cfg.Metrics.Enabled {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			if err := http.ListenAndServe(addr, nil); err != nil {
				log.Error("cli: metrics server failed", "error", err)
			}
		}()
	}

	n := node.New(node.Config{
		SelfHost:     cfg.Node.Host,
		RegistryAddr: registryAddr,
	})
	return n.Run()
}
