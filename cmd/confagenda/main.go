package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	// Embedded zoneinfo for hosts that ship none, such as scratch images.
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/confagenda/internal/conference"
	"github.com/hrygo/confagenda/internal/profile"
	"github.com/hrygo/confagenda/internal/version"
	"github.com/hrygo/confagenda/server"
	"github.com/hrygo/confagenda/server/service/catalog"
	"github.com/hrygo/confagenda/store"
	"github.com/hrygo/confagenda/store/db"
)

var v *viper.Viper

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v = profile.NewViper()
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "confagenda",
		Short:   "Personalized conference agenda engine",
		Version: version.GetCurrentVersion("prod"),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return v.BindPFlags(cmd.Flags())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("data", ".", "data directory")
	flags.String("driver", "sqlite", "database driver (sqlite or postgres)")
	flags.String("dsn", "", "database source name")
	flags.String("log-file", "", "rotating log file, stderr when empty")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("conference", "", "conference definition YAML file")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(serveCmd(), migrateCmd(), catalogCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile, conf, err := loadProfile()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			storeInstance, err := openStore(ctx, instanceProfile)
			if err != nil {
				return err
			}
			s, err := server.NewServer(ctx, instanceProfile, storeInstance, conf)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)

			if err := s.Start(ctx); err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
			printGreetings(instanceProfile, conf)

			<-c
			s.Shutdown(ctx)
			return nil
		},
	}
	cmd.Flags().String("addr", "", "address of server")
	cmd.Flags().Int("port", 8081, "port of server")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile, _, err := loadProfile()
			if err != nil {
				return err
			}
			ctx := context.Background()
			storeInstance, err := openStore(ctx, instanceProfile)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			schemaVersion, err := storeInstance.GetCurrentSchemaVersion()
			if err != nil {
				return err
			}
			fmt.Printf("schema version %s\n", schemaVersion)
			return nil
		},
	}
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Import or export the session catalog",
	}

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a conference JSON export into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(func(ctx context.Context, svc *catalog.Service) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()

				result, err := svc.Import(ctx, f)
				if err != nil {
					return err
				}
				fmt.Printf("imported %d sessions, %d speakers, %d session speakers\n", result.Sessions, result.Speakers, result.SessionSpeakers)
				return nil
			})
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [dir]",
		Short: "Export the catalog as CSV files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(func(ctx context.Context, svc *catalog.Service) error {
				result, err := svc.ExportCSV(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("exported %d sessions, %d speakers, %d session speakers to %s\n", result.Sessions, result.Speakers, result.SessionSpeakers, args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(importCmd, exportCmd)
	return cmd
}

func withCatalog(fn func(ctx context.Context, svc *catalog.Service) error) error {
	instanceProfile, conf, err := loadProfile()
	if err != nil {
		return err
	}
	ctx := context.Background()
	storeInstance, err := openStore(ctx, instanceProfile)
	if err != nil {
		return err
	}
	defer storeInstance.Close()
	return fn(ctx, catalog.NewService(storeInstance, conf))
}

func loadProfile() (*profile.Profile, *conference.Conference, error) {
	instanceProfile := profile.FromViper(v)
	instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)
	if err := instanceProfile.Validate(); err != nil {
		return nil, nil, err
	}

	server.SetupLogger(instanceProfile)

	conf, err := conference.Load(instanceProfile.ConferenceFile)
	if err != nil {
		return nil, nil, err
	}
	return instanceProfile, conf, nil
}

func openStore(ctx context.Context, instanceProfile *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to create db driver: %w", err)
	}
	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		_ = storeInstance.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return storeInstance, nil
}

func printGreetings(instanceProfile *profile.Profile, conf *conference.Conference) {
	fmt.Printf("confagenda %s started successfully!\n", instanceProfile.Version)
	fmt.Printf("Conference: %s (%s)\n", conf.Name, conf.Timezone)
	fmt.Printf("Data directory: %s\n", instanceProfile.Data)
	fmt.Printf("Database driver: %s\n", instanceProfile.Driver)
	fmt.Printf("Mode: %s\n", instanceProfile.Mode)
	if instanceProfile.Addr == "" {
		fmt.Printf("Server running on port %d\n", instanceProfile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", instanceProfile.Addr, instanceProfile.Port)
	}
}
