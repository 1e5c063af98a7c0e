package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/dropvault/pkg/configs"
	kv "github.com/yeisme/dropvault/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Key-Value store related commands",
		Aliases: []string{"keyvalue"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered kv types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered kv types:")
			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	// 按当前配置连一次 KV，验证缓存层可用.
	kvPingCmd = &cobra.Command{
		Use:   "ping",
		Short: "connect to the configured kv backend and probe it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}

			client, err := kv.NewKVClient(cmd.Context())
			if err != nil {
				return err
			}

			if _, err := client.Exists(cmd.Context(), "dropvault:ping"); err != nil {
				return fmt.Errorf("kv probe failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "kv backend is reachable")

			return nil
		},
	}
)

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd)
	kvCmd.AddCommand(kvPingCmd)
}
