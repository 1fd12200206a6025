package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/repository"
	"github.com/noah-isme/smart-student-api/internal/service"
	"github.com/noah-isme/smart-student-api/pkg/config"
	"github.com/noah-isme/smart-student-api/pkg/events"
	"github.com/noah-isme/smart-student-api/pkg/logger"
)

var errVolatileStore = errors.New("repair needs a persistent store; set STORE_DRIVER to redis or postgres")

type options struct {
	collection string
	listKeys   bool
	request    dto.RepairRequest
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "repair: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts, err := parseOptions(cfg, args)
	if err != nil {
		return err
	}
	if cfg.Store.Driver == "" || cfg.Store.Driver == config.StoreMemory {
		return errVolatileStore
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	backend, err := repository.Open(ctx, cfg, logr, nil)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	defer backend.Close() //nolint:errcheck

	if opts.listKeys {
		lister, ok := backend.Raw.(repository.KeyLister)
		if !ok {
			return fmt.Errorf("store driver %q cannot list keys", backend.Name)
		}
		keys, err := lister.Keys(ctx, cfg.Store.KeyPrefix)
		if err != nil {
			return fmt.Errorf("list keys: %w", err)
		}
		for _, key := range keys {
			fmt.Fprintln(stdout, key)
		}
		return nil
	}

	repos := repository.New(backend.Store, cfg.Store.KeyPrefix, logr)
	repairs := service.NewRepairService(repos, events.NewBus(logr), nil, logr)

	report, err := repairs.Run(ctx, opts.collection, opts.request)
	if err != nil {
		logr.Error("repair failed", zap.String("collection", opts.collection), zap.Error(err))
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func parseOptions(cfg *config.Config, args []string) (options, error) {
	fs := flag.NewFlagSet("repair", flag.ContinueOnError)
	var opts options
	var before string
	fs.StringVar(&opts.collection, "collection", service.RepairComments, "collection to repair: comments, notifications, users, tasks, reset-notifications")
	fs.StringVar(&opts.request.StudentUsername, "student", cfg.Repair.DefaultStudent, "student whose comments are repaired (empty repairs all)")
	fs.StringVar(&opts.request.StripReader, "strip", cfg.Repair.DefaultReader, "username to strip from comment readBy")
	fs.StringVar(&opts.request.Username, "username", cfg.Repair.DefaultReader, "username to unmark on its own notifications")
	fs.StringVar(&opts.request.Type, "type", "", "restrict the notification repair to one type")
	fs.StringVar(&before, "before", "", "only unmark notifications created before this RFC 3339 time; combine with -type, since reminders read legitimately look the same")
	fs.BoolVar(&opts.request.DryRun, "dry-run", false, "report changes without writing")
	fs.BoolVar(&opts.listKeys, "list-keys", false, "print the store key space and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if before != "" {
		at, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return options{}, fmt.Errorf("invalid -before: %w", err)
		}
		opts.request.Before = &at
	}
	return opts, nil
}
