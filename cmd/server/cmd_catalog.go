package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"starconquest-server/internal/galaxy"
	"starconquest-server/internal/shared/config"
	"starconquest-server/internal/shared/database"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the stored galaxy maps",
		Long: `Galaxy maps stored in the catalog can be played with the source
"catalog:<name>". The database comes from the DB_* environment unless
--driver and --dsn are given.`,
	}

	cmd.PersistentFlags().String("driver", "", "Database driver: postgres or sqlite")
	cmd.PersistentFlags().String("dsn", "", "Database connection string (sqlite: file path)")

	cmd.AddCommand(newCatalogImportCmd(), newCatalogListCmd())
	return cmd
}

func newCatalogImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <name> <file>",
		Short: "Validate a galaxy document and store it under name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]

			doc, err := galaxy.LoadFile(path)
			if err != nil {
				return err
			}

			service, closeDB, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			entry, err := service.Import(cmd.Context(), name, doc)
			if err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(entry)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d stars, %d connections\n",
				entry.Name, entry.StarCount, entry.ConnectionCount)
			return nil
		},
	}
}

func newCatalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored galaxy maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, closeDB, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			entries, err := service.List(cmd.Context())
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []galaxy.CatalogEntry{}
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(entries)
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No galaxy maps stored")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTARS\tCONNECTIONS\tCREATED")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", e.Name, e.StarCount, e.ConnectionCount, e.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

// openCatalog connects to the catalog database and applies migrations.
func openCatalog(cmd *cobra.Command) (*galaxy.Service, func(), error) {
	driver, _ := cmd.Flags().GetString("driver")
	dsn, _ := cmd.Flags().GetString("dsn")

	if driver == "" || dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		if driver == "" {
			driver = cfg.DriverName()
		}
		if dsn == "" {
			dsn = cfg.ConnectionString()
		}
	}

	db, err := database.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, nil, err
	}

	repo := galaxy.NewRepository(db, slog.Default())
	service := galaxy.NewService(repo, galaxy.DefaultProfile(), slog.Default())
	return service, func() { db.Close() }, nil
}
