package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cleared-gl/internal/accounts"
	"github.com/cleared-dev/cleared-gl/internal/audit"
	"github.com/cleared-dev/cleared-gl/internal/model"
	"github.com/cleared-dev/cleared-gl/internal/report"
)

func newAccountCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the chart of accounts",
	}
	cmd.AddCommand(
		newAccountAddCommand(dir),
		newAccountListCommand(dir),
		newAccountRenameCommand(dir),
		newAccountMoveCommand(dir),
	)
	return cmd
}

func newAccountAddCommand(dir *string) *cobra.Command {
	var rootType string

	cmd := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := model.ParseRootType(rootType)
			if err != nil {
				return err
			}
			p, err := openProject(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer p.Close()

			a, err := p.engine.AddAccount(cmd.Context(), args[0], args[1], rt)
			if err != nil {
				return err
			}
			if err := p.record(cmd.Context(), audit.ActionAccountAdd, a.ID,
				fmt.Sprintf("%s %s (%s)", a.Code, a.Name, a.RootType),
				fmt.Sprintf("account: Add %s %s", a.Code, a.Name)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s)\n", a.Code, a.Name, a.RootType)
			return nil
		},
	}
	cmd.Flags().StringVarP(&rootType, "type", "t", "", "root type: asset, liability, equity, revenue, expense (required)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newAccountListCommand(dir *string) *cobra.Command {
	var prefix, rootType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := accounts.Filter{CodePrefix: prefix, SortByCode: true}
			if rootType != "" {
				rt, err := model.ParseRootType(rootType)
				if err != nil {
					return err
				}
				f.RootType = rt
			}
			p, err := openProject(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer p.Close()

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tSIDE")
			for _, a := range p.engine.ListAccounts(f) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Code, a.Name, a.RootType, report.NormalSide(a.RootType))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only codes starting with prefix")
	cmd.Flags().StringVarP(&rootType, "type", "t", "", "only this root type")
	return cmd
}

func newAccountRenameCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <code> <new-name>",
		Short: "Rename an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer p.Close()

			a, err := p.account(args[0])
			if err != nil {
				return err
			}
			renamed, err := p.engine.RenameAccount(cmd.Context(), a.ID, args[1])
			if err != nil {
				return err
			}
			if err := p.record(cmd.Context(), audit.ActionAccountRename, a.ID,
				fmt.Sprintf("%s: %q -> %q", a.Code, a.Name, renamed.Name),
				fmt.Sprintf("account: Rename %s to %s", a.Code, renamed.Name)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", a.Code, renamed.Name)
			return nil
		},
	}
}

func newAccountMoveCommand(dir *string) *cobra.Command {
	var rootType string

	cmd := &cobra.Command{
		Use:   "move <code> <new-code>",
		Short: "Change an account's code or root type (only before anything posts to it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer p.Close()

			a, err := p.account(args[0])
			if err != nil {
				return err
			}
			rt := a.RootType
			if rootType != "" {
				if rt, err = model.ParseRootType(rootType); err != nil {
					return err
				}
			}
			moved, err := p.engine.ReclassifyAccount(cmd.Context(), a.ID, args[1], rt)
			if err != nil {
				return err
			}
			if err := p.record(cmd.Context(), audit.ActionAccountMove, a.ID,
				fmt.Sprintf("%s (%s) -> %s (%s)", a.Code, a.RootType, moved.Code, moved.RootType),
				fmt.Sprintf("account: Move %s to %s", a.Code, moved.Code)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s (%s)\n", a.Code, moved.Code, moved.RootType)
			return nil
		},
	}
	cmd.Flags().StringVarP(&rootType, "type", "t", "", "new root type")
	return cmd
}
