package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"regimath/backend/internal/config"
	"regimath/backend/internal/room"
	"regimath/backend/internal/session"
	"regimath/backend/internal/storage"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func openStorage() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return storage.OpenDatabase(cfg.Database)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func issueSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue-session <id> <name>",
		Short: "Mint a session token for a test client",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Session.Secret == "" {
				return errors.New("SESSION_SECRET is not set")
			}

			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl == 0 {
				ttl = cfg.Session.TTL
			}

			codec := session.NewCodec(cfg.Session.Secret, cfg.Session.CookieName, ttl)
			token, err := codec.Issue(session.Identity{ID: args[0], Name: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", codec.CookieName(), token)
			return nil
		},
	}
	cmd.Flags().Duration("ttl", 0, "token lifetime (defaults to the configured session ttl)")
	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the payment ledger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <reference>",
		Short: "Print the record for a preference reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStorage()
			if err != nil {
				return err
			}
			defer storage.CloseDatabase(db)

			rec, err := storage.NewLedgerStore(db).GetByPreferenceReference(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("no record for reference %s", args[0])
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "orphans",
		Short: "List payment updates that matched no record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStorage()
			if err != nil {
				return err
			}
			defer storage.CloseDatabase(db)

			orphans, err := storage.NewLedgerStore(db).ListOrphans(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(orphans) == 0 {
				fmt.Fprintln(out, "no orphan payment updates")
				return nil
			}
			for _, o := range orphans {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", o.ReceivedAt.Format(time.RFC3339), o.PaymentID, o.Status, o.PayerEmail)
			}
			return nil
		},
	})

	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <room>",
		Short: "Print a room's message history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !room.Valid(args[0]) {
				return fmt.Errorf("malformed room id %q", args[0])
			}
			db, err := openStorage()
			if err != nil {
				return err
			}
			defer storage.CloseDatabase(db)

			history, err := storage.NewHistoryStore(db).HistoryOf(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range history {
				fmt.Fprintf(out, "%s  %-16s %s\n", time.UnixMilli(m.Time).Format("2006-01-02 15:04:05"), m.SenderName, m.Text)
			}
			return nil
		},
	}
}
