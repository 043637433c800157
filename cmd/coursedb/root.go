package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/coursedb/internal/enrollment"
	"github.com/nerrad567/coursedb/internal/infrastructure/config"
	"github.com/nerrad567/coursedb/internal/infrastructure/database"
	"github.com/nerrad567/coursedb/internal/infrastructure/logging"
	"github.com/nerrad567/coursedb/internal/infrastructure/mqtt"
)

// app holds what every command needs once flags are parsed.
type app struct {
	configPath string
	dbPath     string

	out io.Writer
	cfg *config.Config
	log *logging.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	// Default logger until configuration is loaded
	a := &app{out: out, log: logging.Default()}

	root := &cobra.Command{
		Use:   "coursedb",
		Short: "Manage a SQLite store of students, courses and enrollments",
		Long: `Manage a SQLite store of students, courses and enrollments.

Configuration is read from configs/config.yaml when present (override with
--config or COURSEDB_CONFIG); built-in defaults are used otherwise. The
store path can be overridden with --db.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&a.configPath, "config", getConfigPath(), "config file (optional)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path, overrides database.path (:memory: for a throwaway store)")

	root.AddCommand(
		newDemoCmd(a),
		newInitCmd(a),
		newStudentsCmd(a),
		newCoursesCmd(a),
		newNextIDCmd(a),
		newDropCmd(a),
		newWatchCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	explicit := cmd.Flags().Changed("config") || os.Getenv("COURSEDB_CONFIG") != ""
	cfg, err := loadConfig(a.configPath, explicit)
	if err != nil {
		a.log.Error("failed to load configuration", "path", a.configPath, "error", err)
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}

	a.cfg = cfg
	a.log = logging.New(cfg.Logging, version)
	a.log.Debug("configuration loaded", "path", a.configPath, "database", cfg.Database.Path)
	return nil
}

// loadConfig reads path, falling back to the defaults when the file is
// missing and was not asked for explicitly.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default()
	}
	return nil, fmt.Errorf("loading config: %w", err)
}

// openDatabase connects to the configured store and, when the change feed
// is enabled, to the MQTT broker. The returned function undoes both.
func (a *app) openDatabase(ctx context.Context) (*enrollment.Database, func(), error) {
	db := enrollment.NewWithConfig(database.Config{
		Path:        a.cfg.Database.Path,
		BusyTimeout: a.cfg.Database.BusyTimeout,
	})
	db.SetLogger(a.log.With("component", "enrollment"))

	var mqttClient *mqtt.Client
	if a.cfg.MQTT.Enabled {
		client, err := a.connectMQTT(ctx)
		if err != nil {
			return nil, nil, err
		}
		mqttClient = client
		db.SetNotifier(&changePublisher{publisher: client, log: a.log})
	}

	if err := db.Connect(ctx); err != nil {
		a.closeMQTT(mqttClient)
		return nil, nil, err
	}

	cleanup := func() {
		if err := db.Disconnect(); err != nil {
			a.log.Error("error closing database", "error", err)
		}
		a.closeMQTT(mqttClient)
	}
	return db, cleanup, nil
}

// connectMQTT connects to the configured broker and confirms the session
// is up before returning.
func (a *app) connectMQTT(ctx context.Context) (*mqtt.Client, error) {
	client, err := mqtt.Connect(a.cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(a.log)
	if err := client.HealthCheck(ctx); err != nil {
		a.closeMQTT(client)
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	a.log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", a.cfg.MQTT.Broker.Host, a.cfg.MQTT.Broker.Port),
		"client_id", a.cfg.MQTT.Broker.ClientID,
	)
	return client, nil
}

func (a *app) closeMQTT(client *mqtt.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		a.log.Error("error closing MQTT", "error", err)
	}
}
