package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
	"expensetracker/internal/persist"
)

func (a *app) listCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the stored expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer sess.Close()

			items := sess.store.List()
			out := cmd.OutOrStdout()
			if asJSON {
				raw, err := persist.Encode(items)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(raw))
				return err
			}
			if err := writeTable(out, items); err != nil {
				return err
			}
			return writeTotal(out, core.Sum(items))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the list in its stored JSON layout")
	return cmd
}

func (a *app) totalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Print the running total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer sess.Close()
			return writeTotal(cmd.OutOrStdout(), sess.store.Total())
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var name, amount, date string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Long: `Add an expense to the list.

An amount that is not a number is stored anyway and counts as zero in the
total. The date defaults to today.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := core.Today()
			if cmd.Flags().Changed("date") {
				parsed, err := core.ParseDate(date)
				if err != nil {
					return err
				}
				d = parsed
			}

			sess, err := a.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer sess.Close()

			e := sess.store.Add(cmd.Context(), name, core.ParseAmount(amount), d)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added expense #%d: %s\n", e.ID, describe(e))
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "expense name")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 12.50")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var name, amount, date string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the fields of an expense",
		Long: `Change the fields of an expense. Only the flags given are changed;
the id is never changed. Editing an id that does not exist changes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			var newDate core.Date
			if flags.Changed("date") {
				if newDate, err = core.ParseDate(date); err != nil {
					return err
				}
			}

			sess, err := a.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.OutOrStdout()
			current, ok := sess.store.Get(id)
			if !ok {
				_, err = fmt.Fprintf(out, "No expense with id %d; nothing changed.\n", id)
				return err
			}

			patch := core.Patch{Name: current.Name, Amount: current.Amount, Date: current.Date}
			if flags.Changed("name") {
				patch.Name = name
			}
			if flags.Changed("amount") {
				patch.Amount = core.ParseAmount(amount)
			}
			if flags.Changed("date") {
				patch.Date = newDate
			}
			sess.store.Edit(cmd.Context(), id, patch)

			_, err = fmt.Fprintf(out, "Updated expense #%d: %s\n", id, describe(current.Apply(patch)))
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&amount, "amount", "", "new amount")
	cmd.Flags().StringVar(&date, "date", "", "new date as YYYY-MM-DD")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an expense",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			sess, err := a.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.OutOrStdout()
			if !sess.store.Delete(cmd.Context(), id) {
				_, err = fmt.Fprintf(out, "No expense with id %d; nothing deleted.\n", id)
				return err
			}
			_, err = fmt.Fprintf(out, "Deleted expense #%d\n", id)
			return err
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid expense id %q", s)
	}
	return id, nil
}

func money(a core.Amount) string {
	if !a.IsValid() {
		return a.String()
	}
	return "$" + a.String()
}

func describe(e core.Expense) string {
	return fmt.Sprintf("%s, %s, %s", e.Name, money(e.Amount), e.Date.Display())
}

func writeTable(w io.Writer, items []core.Expense) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No expenses yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAMOUNT\tDATE")
	for _, e := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Name, money(e.Amount), e.Date.Display())
	}
	return tw.Flush()
}

func writeTotal(w io.Writer, t core.Totals) error {
	line := fmt.Sprintf("Total: $%s (%d expenses", t.String(), t.Count)
	if t.Invalid > 0 {
		line += fmt.Sprintf(", %d without a valid amount", t.Invalid)
	}
	_, err := fmt.Fprintln(w, line+")")
	return err
}
