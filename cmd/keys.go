package main

import (
	"fmt"
	"gemini-gateway/core"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// keysEnv keys 子命令共享的数据库与加解密器
type keysEnv struct {
	db *gorm.DB
	sp core.SecretProvider
}

func openKeysEnv() (*keysEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	sp, err := secretProvider(cfg.Credentials.EncryptionKey)
	if err != nil {
		return nil, err
	}
	db, err := openDatabase(cfg.Credentials.DBPath)
	if err != nil {
		return nil, err
	}
	return &keysEnv{db: db, sp: sp}, nil
}

func (e *keysEnv) close() {
	closeDatabase(e.db)
}

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the SQLite credential store",
	}
	cmd.AddCommand(newKeysAddCmd(), newKeysListCmd(), newKeysToggleCmd("enable", true), newKeysToggleCmd("disable", false))
	return cmd
}

func newKeysAddCmd() *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "add <secret>...",
		Short: "Encrypt and append API keys to the pool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openKeysEnv()
			if err != nil {
				return err
			}
			defer env.close()
			for _, secret := range args {
				secret = strings.TrimSpace(secret)
				if secret == "" {
					continue
				}
				rec, err := core.AddCredential(env.db, env.sp, label, secret)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Added credential %d at position %d (Key: %s)\n",
					rec.ID, rec.Position, core.Credential{Secret: secret}.Masked())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "label stored with each key")
	return cmd
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored API keys (masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openKeysEnv()
			if err != nil {
				return err
			}
			defer env.close()
			records, err := core.ListCredentials(env.db)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPOSITION\tLABEL\tENABLED\tKEY")
			for _, rec := range records {
				masked := "<undecryptable>"
				if secret, err := env.sp.Decrypt(rec.KeyValue); err == nil {
					masked = core.Credential{Secret: secret}.Masked()
				}
				fmt.Fprintf(w, "%d\t%d\t%s\t%t\t%s\n", rec.ID, rec.Position, rec.Label, rec.Enabled, masked)
			}
			return w.Flush()
		},
	}
}

func newKeysToggleCmd(name string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: strings.ToUpper(name[:1]) + name[1:] + " a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid credential id %q: %w", args[0], err)
			}
			env, err := openKeysEnv()
			if err != nil {
				return err
			}
			defer env.close()
			if err := core.SetCredentialEnabled(env.db, uint(id), enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Credential %d %sd\n", id, name)
			return nil
		},
	}
}
