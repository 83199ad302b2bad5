package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/database"
	"github.com/localnerve/jam-build-configurator/internal/services"
	"github.com/localnerve/jam-build-configurator/internal/testutil"
)

func main() {
	var showHelp bool
	var envFilename string
	flag.BoolVar(&showHelp, "h", false, "show help")
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run the configurator stack (database, Authorizer, configurator) in containers
with the environment variables from the .env file. Any document files given
are loaded into the stack database once the configurator is up.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH] [FILE...]

ENV_FILE_PATH: path to the .env file
FILE: .yaml, .yml or .json configurator documents

example
  testcontainers -f /path/to/something/.env cabinets/tall.yaml
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGTSTP, syscall.SIGQUIT)
	defer stop()

	type started struct {
		stack *testutil.Stack
		err   error
	}
	ready := make(chan started, 1)
	go func() {
		stack, err := testutil.StartStack(ctx, testutil.StackEnvFromEnviron())
		ready <- started{stack, err}
	}()

	var stack *testutil.Stack
	select {
	case s := <-ready:
		if s.err != nil {
			log.Fatalf("Failed to start the stack: %v", s.err)
		}
		stack = s.stack
		log.Printf("Configurator stack started")
	case <-ctx.Done():
		// StartStack cleans up after itself when its context is cancelled
		log.Printf("Interrupted while starting")
		if s := <-ready; s.stack != nil {
			s.stack.Terminate(context.Background())
		}
		os.Exit(1)
	}

	if err := loadDocuments(ctx, stack, flag.Args()); err != nil {
		log.Printf("Failed to load documents: %v", err)
	}

	<-ctx.Done()
	log.Printf("Received signal, terminating the stack...")
	stack.Terminate(context.Background())
}

// loadDocuments saves each document file into the stack database,
// replacing any stored model of the same name
func loadDocuments(ctx context.Context, stack *testutil.Stack, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	cfg, err := stack.DatabaseConfig(ctx)
	if err != nil {
		return err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	store := services.NewConfigStore(db)
	for _, p := range paths {
		doc, err := configdoc.LoadFile(p)
		if err != nil {
			return err
		}
		if report := configdoc.Validate(doc, nil); !report.OK() {
			return fmt.Errorf("%s: %s", p, report)
		}

		_, version, err := store.LoadConfig(ctx, doc.Name)
		if err != nil {
			version = 0
		}
		newVersion, err := store.SaveConfig(ctx, doc.Name, doc, version)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		log.Printf("Loaded %s at version %d", doc.Name, newVersion)
	}
	return nil
}
