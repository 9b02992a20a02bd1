package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/shaktech786/arr-suite-mcp-server/internal/config"
	"github.com/shaktech786/arr-suite-mcp-server/internal/store"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup [product]",
	Short: "Back up and maintain the product databases",
	Long: `Snapshot, restore, and inspect the SQLite database behind a product, with
optional upload of the backup artifact to S3 or GCS.

Every operation works on the file named by services.<product>.db_path, or
the --db override. Products running against Postgres get table statistics
and vacuum through services.<product>.postgres_url instead.

Examples:
  arr-suite backup sonarr
  arr-suite backup sonarr --upload s3
  arr-suite backup restore sonarr backups/sonarr-20260823-140000.db
  arr-suite backup query radarr "SELECT title FROM Movies LIMIT 5"
  arr-suite backup tables sonarr
  arr-suite backup vacuum radarr`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		override, _ := cmd.Flags().GetString("db")
		dbPath, err := databasePath(cfg, args[0], override)
		if err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.Backup.Dir
		}
		upload, _ := cmd.Flags().GetString("upload")
		uploaders, err := store.UploadersFor(cfg.Backup, upload)
		if err != nil {
			return err
		}

		info, err := store.BackupDatabase(cmd.Context(), dbPath, dir, uploaders...)
		if err != nil {
			return fmt.Errorf("failed to back up %s: %w", args[0], err)
		}

		fmt.Printf("wrote %s (%d bytes in %s)\n", info.Path, info.Bytes, info.Duration.Round(time.Millisecond))
		for _, remote := range info.Remotes {
			fmt.Printf("uploaded to %s\n", remote)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [product] [backup-file]",
	Short: "Replace a product database with a backup",
	Long: `Replace a product database with a backup. The backup is integrity-checked
first, and the swap goes through a temp file so a failed restore never
leaves a torn database behind.

Stop the product before restoring; it holds the database open.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		override, _ := cmd.Flags().GetString("db")
		dbPath, err := databasePath(cfg, args[0], override)
		if err != nil {
			return err
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			fmt.Printf("Overwrite %s with %s? [y/N]: ", dbPath, args[1])
			var response string
			fmt.Scanln(&response)
			if strings.ToLower(response) != "y" && strings.ToLower(response) != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		db, err := store.OpenSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", dbPath, err)
		}
		defer db.Close()

		if err := db.Restore(cmd.Context(), args[1]); err != nil {
			return fmt.Errorf("failed to restore %s: %w", args[0], err)
		}
		fmt.Printf("restored %s from %s\n", dbPath, args[1])
		return nil
	},
}

var backupQueryCmd = &cobra.Command{
	Use:   "query [product] [sql]",
	Short: "Run a read-only query against a product database",
	Long: `Run a read-only query against a product database. Only SELECT and PRAGMA
statements are accepted; anything that could write is rejected before it
reaches the database.

Examples:
  arr-suite backup query sonarr "SELECT title, path FROM Series"
  arr-suite backup query radarr "PRAGMA table_info(Movies)"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		override, _ := cmd.Flags().GetString("db")
		dbPath, err := databasePath(cfg, args[0], override)
		if err != nil {
			return err
		}

		db, err := store.OpenSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", dbPath, err)
		}
		defer db.Close()

		rows, err := db.Query(cmd.Context(), args[1])
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		return printJSON(rows)
	},
}

var backupTablesCmd = &cobra.Command{
	Use:   "tables [product]",
	Short: "Show per-table row counts for a product database",
	Long: `Show per-table row counts for a product database. When the product runs
against Postgres the stats come from the server catalog and include on-disk
size; otherwise each table in the SQLite file is counted directly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		svc, err := productService(cfg, args[0])
		if err != nil {
			return err
		}

		if svc.PostgresURL != "" {
			pg, err := store.OpenPostgres(svc.PostgresURL)
			if err != nil {
				return fmt.Errorf("failed to connect to postgres: %w", err)
			}
			defer pg.Close()
			stats, err := pg.Tables(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read table stats: %w", err)
			}
			return printJSON(stats)
		}

		override, _ := cmd.Flags().GetString("db")
		dbPath, err := databasePath(cfg, args[0], override)
		if err != nil {
			return err
		}
		db, err := store.OpenSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", dbPath, err)
		}
		defer db.Close()

		counts, err := db.Tables(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count tables: %w", err)
		}
		return printJSON(counts)
	},
}

var backupVacuumCmd = &cobra.Command{
	Use:   "vacuum [product]",
	Short: "Compact a product database",
	Long: `Compact a product database. SQLite files are vacuumed in place; Postgres
deployments run VACUUM ANALYZE, optionally restricted to one table with
--table.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		svc, err := productService(cfg, args[0])
		if err != nil {
			return err
		}

		if svc.PostgresURL != "" {
			table, _ := cmd.Flags().GetString("table")
			pg, err := store.OpenPostgres(svc.PostgresURL)
			if err != nil {
				return fmt.Errorf("failed to connect to postgres: %w", err)
			}
			defer pg.Close()
			if err := pg.Vacuum(cmd.Context(), table); err != nil {
				return fmt.Errorf("vacuum failed: %w", err)
			}
			fmt.Println("vacuum complete")
			return nil
		}

		override, _ := cmd.Flags().GetString("db")
		dbPath, err := databasePath(cfg, args[0], override)
		if err != nil {
			return err
		}
		db, err := store.OpenSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", dbPath, err)
		}
		defer db.Close()

		if err := db.Vacuum(cmd.Context()); err != nil {
			return fmt.Errorf("vacuum failed: %w", err)
		}
		fmt.Println("vacuum complete")
		return nil
	},
}

var backupCheckCmd = &cobra.Command{
	Use:   "check [product]",
	Short: "Run an integrity check on a product database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		override, _ := cmd.Flags().GetString("db")
		dbPath, err := databasePath(cfg, args[0], override)
		if err != nil {
			return err
		}

		db, err := store.OpenSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", dbPath, err)
		}
		defer db.Close()

		result, err := db.Integrity(cmd.Context())
		if err != nil {
			return fmt.Errorf("integrity check failed: %w", err)
		}
		if result != "ok" {
			return fmt.Errorf("integrity check failed: %s", result)
		}
		fmt.Println("integrity ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupQueryCmd)
	backupCmd.AddCommand(backupTablesCmd)
	backupCmd.AddCommand(backupVacuumCmd)
	backupCmd.AddCommand(backupCheckCmd)

	backupCmd.PersistentFlags().String("db", "", "database file (overrides services.<product>.db_path)")
	backupCmd.Flags().String("dir", "", "backup directory (defaults to backup.dir)")
	backupCmd.Flags().String("upload", "", "upload the backup to a remote (s3 or gcs)")
	backupRestoreCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	backupVacuumCmd.Flags().String("table", "", "vacuum a single Postgres table")
}

// productService looks up one product's settings by name.
func productService(cfg *config.Config, product string) (config.Service, error) {
	svc, ok := cfg.Services[product]
	if !ok {
		return config.Service{}, fmt.Errorf("unknown product %q; known: %s", product, strings.Join(config.Products, ", "))
	}
	return svc, nil
}

// databasePath resolves the SQLite file for a product, preferring the
// command line override.
func databasePath(cfg *config.Config, product, override string) (string, error) {
	svc, err := productService(cfg, product)
	if err != nil {
		return "", err
	}
	if override != "" {
		return override, nil
	}
	if svc.DBPath == "" {
		return "", fmt.Errorf("no database path configured for %s; set services.%s.db_path or pass --db", product, product)
	}
	return svc.DBPath, nil
}
