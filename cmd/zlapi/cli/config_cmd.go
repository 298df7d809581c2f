package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/zachlagden/zlapi/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage zlapi configuration",
		Long:  "Initialize a configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a zlapi.yaml configuration file",
		Long:  "Write a configuration file with the default settings, prompting for the master key.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")

	return cmd
}

func runConfigInit(force bool) error {
	path := "zlapi.yaml"

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	masterKey, err := promptMasterKey()
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Auth.MasterKey = masterKey

	body, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	if err := os.WriteFile(path, body, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println("Set lastfm.params (api_key, user) for the activity endpoints, then run 'zlapi serve'.")
	return nil
}

// promptMasterKey reads the master key without echo. An empty key is
// accepted and disables the key-administration endpoints.
func promptMasterKey() (string, error) {
	fmt.Print("Master key (leave empty to disable key administration): ")
	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read master key: %w", err)
	}
	fmt.Println()
	if len(keyBytes) == 0 {
		return "", nil
	}

	fmt.Print("Confirm master key: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(keyBytes) != string(confirmBytes) {
		return "", fmt.Errorf("master keys do not match")
	}
	return string(keyBytes), nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	return cmd
}

func runConfigShow() error {
	initConfig()

	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		fmt.Printf("Config file: %s\n", configFile)
	} else {
		fmt.Println("Config file: (none found, using defaults)")
	}
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The master key is redacted; everything else prints as YAML.
	if cfg.Auth.MasterKey != "" {
		cfg.Auth.MasterKey = "<set>"
	}
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(body))
	return nil
}
