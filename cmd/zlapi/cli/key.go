package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zachlagden/zlapi/internal/config"
	"github.com/zachlagden/zlapi/internal/keystore"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create and list the API keys used to authenticate against the gateway.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())

	return cmd
}

// openKeyStore loads the effective configuration and opens the snapshot
// file it points at.
func openKeyStore() (*keystore.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := keystore.Open(cfg.Keys.Path)
	if err != nil {
		return nil, fmt.Errorf("open key store: %w", err)
	}
	return store, nil
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var createdBy string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Example: `  zlapi key create --created-by "Zach"
  zlapi key create`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(createdBy)
		},
	}

	cmd.Flags().StringVar(&createdBy, "created-by", "", "Attribution recorded against the key")

	return cmd
}

func runKeyCreate(createdBy string) error {
	store, err := openKeyStore()
	if err != nil {
		return err
	}

	rec, err := store.Issue(createdBy)
	if err != nil {
		return fmt.Errorf("issue api key: %w", err)
	}

	fmt.Println("API Key created:")
	fmt.Println()
	fmt.Printf("  Key:        %s\n", rec.Key)
	fmt.Printf("  Created:    %s\n", rec.Created)
	fmt.Printf("  Created by: %s\n", rec.CreatedBy)
	fmt.Println()
	fmt.Printf("  Saved to %s\n", store.Path())
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runKeyList(jsonOutput bool) error {
	store, err := openKeyStore()
	if err != nil {
		return err
	}

	records := store.List()

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No API keys issued. Use 'zlapi key create' to create one.")
		return nil
	}

	fmt.Printf("%-50s %-26s %-20s\n", "KEY", "CREATED", "CREATED BY")
	fmt.Printf("%-50s %-26s %-20s\n", "---", "-------", "----------")
	for _, rec := range records {
		fmt.Printf("%-50s %-26s %-20s\n", rec.Key, rec.Created, rec.CreatedBy)
	}

	return nil
}
