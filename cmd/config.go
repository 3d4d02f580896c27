package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"flowboard/internal/app"
	"flowboard/internal/config"
	"flowboard/internal/secret"
	"flowboard/internal/ui"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgPath
			if path == "" {
				path = config.Path()
			}
			_, err := os.Stat(path)
			fmt.Printf("  %s %s %s\n\n", ui.Brand.Sprint("config"), path, ui.StatusIcon(err == nil))
			shown := *cfg
			if shown.Store.Password != "" {
				shown.Store.Password = "********"
			}
			return toml.NewEncoder(os.Stdout).Encode(shown)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.EnsureExists(); err != nil {
				return err
			}
			announce(true, "Config at %s", config.Path())
			return nil
		},
	})

	var remove bool
	password := &cobra.Command{
		Use:   "password",
		Short: "Store the revision store password in the keychain",
		Long: "Read the password of the configured [store] server from stdin and keep it in\n" +
			"the keychain, so config.toml does not need to hold it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := app.StoreSecretKey(cfg)
			keychain := secret.NewKeychainStore()
			if remove {
				if err := keychain.Delete(key); err != nil {
					return err
				}
				announce(true, "Removed password for %s", key)
				return nil
			}

			fmt.Printf("  Password for %s: ", key)
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			pw := strings.TrimRight(line, "\r\n")
			if pw == "" {
				return fmt.Errorf("empty password")
			}
			if err := keychain.Set(key, []byte(pw)); err != nil {
				return err
			}
			announce(true, "Stored password for %s", key)
			return nil
		},
	}
	password.Flags().BoolVar(&remove, "clear", false, "Remove the stored password")

	cmd.AddCommand(password)
	return cmd
}
