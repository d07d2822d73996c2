package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	opts := AppOptions{}

	rootCmd := &cobra.Command{
		Use:           "bookshelf",
		Short:         "Personal book catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(app *App) error {
				return app.RunSession(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", DefaultConfigFile, "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&opts.EnvFile, "env", DefaultEnvFile, "Environment file path")

	rootCmd.AddCommand(newListCommand(&opts))
	rootCmd.AddCommand(newSearchCommand(&opts))
	rootCmd.AddCommand(newAddCommand(&opts))
	rootCmd.AddCommand(newRemoveCommand(&opts))

	return rootCmd
}

// withApp builds the app for one command and cleans it afterwards.
func withApp(cmd *cobra.Command, opts AppOptions, fn func(*App) error) error {
	app, err := NewApp(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Clean()
	return fn(app)
}

func newListCommand(opts *AppOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *opts, func(app *App) error {
				return app.WithCatalog(cmd.Context(), func(c *Catalog) error {
					out := cmd.OutOrStdout()
					books := c.ListAll()
					if len(books) == 0 {
						fmt.Fprintln(out, "The catalog is empty.")
						return nil
					}
					renderBooks(out, books, isTerminal(out))
					return nil
				})
			})
		},
	}
}

func newSearchCommand(opts *AppOptions) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search books by title, author or genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := ParseSearchField(by)
			if err != nil {
				return err
			}
			return withApp(cmd, *opts, func(app *App) error {
				return app.WithCatalog(cmd.Context(), func(c *Catalog) error {
					out := cmd.OutOrStdout()
					results := c.Search(args[0], field)
					if len(results) == 0 {
						fmt.Fprintf(out, "No book found for '%s' by %s.\n", args[0], field)
						return nil
					}
					renderBooks(out, results, isTerminal(out))
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&by, "by", string(SearchByTitle), "Field to search: title, author or genre")
	return cmd
}

func newAddCommand(opts *AppOptions) *cobra.Command {
	var title, author, genre string
	var year int
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := NewBookRecord(title, author, year, genre)
			if err != nil {
				return err
			}
			return withApp(cmd, *opts, func(app *App) error {
				return app.WithCatalog(cmd.Context(), func(c *Catalog) error {
					if err := c.Add(book); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' added.\n", book.Title())
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Book title")
	cmd.Flags().StringVar(&author, "author", "", "Book author")
	cmd.Flags().IntVar(&year, "year", 0, "Publication year")
	cmd.Flags().StringVar(&genre, "genre", "", "Book genre")
	return cmd
}

func newRemoveCommand(opts *AppOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove TITLE",
		Short: "Remove a book by its title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *opts, func(app *App) error {
				return app.WithCatalog(cmd.Context(), func(c *Catalog) error {
					if c.RemoveByTitle(args[0]) {
						fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' removed.\n", args[0])
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' not found.\n", args[0])
					}
					return nil
				})
			})
		},
	}
}
