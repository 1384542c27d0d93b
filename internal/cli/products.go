package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/viewmodel"
)

// NewProductsCommand creates the products command group.
func NewProductsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product", "p"},
		Short:   "List and manage products",
	}

	cmd.AddCommand(newProductsListCommand(rootOpts))
	cmd.AddCommand(newProductsShowCommand(rootOpts))
	cmd.AddCommand(newProductsCreateCommand(rootOpts))
	cmd.AddCommand(newProductsUpdateCommand(rootOpts))
	cmd.AddCommand(newProductsDeleteCommand(rootOpts))

	return cmd
}

// openCatalog opens the app and restores the stored session, so requests
// carry the user's token when there is one.
func openCatalog(opts *RootOptions, cmd *cobra.Command, yes bool) (*app, *cliUI, error) {
	a, err := openApp(opts, cmd)
	if err != nil {
		return nil, nil, err
	}
	ui := newUI(a.out, cmd.InOrStdin(), yes)
	auth := viewmodel.NewAuth(a.gw, a.sessions, ui, ui, a.vmOptions()...)
	if _, ok := auth.Restore(cmd.Context()); !ok {
		a.out.VerboseLog("no session; using the anonymous key")
	}
	return a, ui, nil
}

func newProductsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List products by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ui, err := openCatalog(rootOpts, cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			list := viewmodel.NewCatalogList(a.gw, ui, ui, ui, a.vmOptions()...)
			st := list.OnActivate(cmd.Context())
			if st.IsError() {
				return a.fail(errorFromState(st.Message(), ui))
			}
			entries, _ := st.Value()

			if a.out.JSON() {
				return a.out.Success(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.out.Writer, "No products yet.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(a.out.Writer, "#%-5d %-30s %s\n", e.ID, e.Name, a.price(e.Price))
			}
			return nil
		},
	}
}

func newProductsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			a, ui, err := openCatalog(rootOpts, cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			detail := viewmodel.NewEntryDetail(a.gw, id, ui, ui, a.vmOptions()...)
			st := detail.OnActivate(cmd.Context())
			if st.IsError() {
				return a.fail(errorFromState(st.Message(), ui))
			}
			e, _ := st.Value()

			if a.out.JSON() {
				return a.out.Success(e)
			}
			a.printEntry(e)
			return nil
		},
	}
}

func (a *app) printEntry(e catalog.Entry) {
	w := a.out.Writer
	fmt.Fprintf(w, "#%d %s\n", e.ID, e.Name)
	if e.Description != "" {
		fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(e.Description, "\n", "\n  "))
	}
	fmt.Fprintf(w, "  Price:   %s\n", a.price(e.Price))
	if !e.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  Created: %s\n", e.CreatedAt.Local().Format("02/01/2006 15:04"))
	}
}

// productFlags are the form fields of create and update.
type productFlags struct {
	name        string
	price       string
	description string
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().StringVar(&f.price, "price", "", "price, e.g. 10,50 or 10.50")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
}

func newProductsCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var flags productFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Long: `Create a product.

Example:
  storefront products create --name "Caneca" --price 25,90 --description "Caneca de cerâmica"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := viewmodel.FormInput{Name: flags.name, Price: flags.price, Description: flags.description}
			return runSave(rootOpts, cmd, 0, func(catalog.Draft) viewmodel.FormInput { return in })
		},
	}
	flags.register(cmd)
	return cmd
}

func newProductsUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var flags productFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a product",
		Long: `Update a product. Fields left out keep their current value.

Example:
  storefront products update 12 --price 29,90`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			return runSave(rootOpts, cmd, id, func(current catalog.Draft) viewmodel.FormInput {
				in := viewmodel.FormInput{
					Name:        current.Name,
					Price:       current.Price.String(),
					Description: current.Description,
				}
				if cmd.Flags().Changed("name") {
					in.Name = flags.name
				}
				if cmd.Flags().Changed("price") {
					in.Price = flags.price
				}
				if cmd.Flags().Changed("description") {
					in.Description = flags.description
				}
				return in
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// runSave loads the form for id (zero creates), builds the input from
// the loaded draft and submits it.
func runSave(opts *RootOptions, cmd *cobra.Command, id int64, input func(catalog.Draft) viewmodel.FormInput) error {
	a, ui, err := openCatalog(opts, cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	form := viewmodel.NewEntryForm(a.gw, id, ui, ui, a.vmOptions()...)
	st := form.OnActivate(cmd.Context())
	if st.IsError() {
		return a.fail(errorFromState(st.Message(), ui))
	}
	current, _ := st.Value()

	entry, err := form.Submit(cmd.Context(), input(current))
	if err != nil {
		return a.fail(err)
	}
	if a.out.JSON() {
		return a.out.Success(entry)
	}
	a.printEntry(entry)
	return nil
}

func newProductsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Long: `Delete a product after confirmation. --yes skips the question and is
required with --format json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" && !yes {
				return NewExitError(ExitCommandError, errConfirmationRequired.Error())
			}

			a, ui, err := openCatalog(rootOpts, cmd, yes)
			if err != nil {
				return err
			}
			defer a.close()

			list := viewmodel.NewCatalogList(a.gw, ui, ui, ui, a.vmOptions()...)
			list.OnActivate(cmd.Context())
			deleted, err := list.RequestDelete(cmd.Context(), id)
			if err != nil {
				return a.fail(err)
			}
			if deleted {
				if a.out.JSON() {
					return a.out.Success(map[string]int64{"deleted": id})
				}
				return nil
			}
			if !a.out.JSON() {
				fmt.Fprintln(a.out.Writer, "Cancelled.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// noticeError turns an error notice into an error for the exit report.
type noticeError struct {
	notice viewmodel.Notice
}

func (e *noticeError) Error() string {
	return e.notice.Message
}

// errorFromState returns an error for a view-model that ended in the
// error phase. The notice carries the same message.
func errorFromState(message string, ui *cliUI) error {
	if n, ok := ui.lastError(); ok && n.Message == message {
		return &noticeError{n}
	}
	return &noticeError{viewmodel.Notice{Level: viewmodel.NoticeError, Message: message}}
}
