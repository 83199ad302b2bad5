package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/localnerve/jam-build-configurator/data"
	"github.com/localnerve/jam-build-configurator/internal/config"
	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/database"
	"github.com/localnerve/jam-build-configurator/internal/services"
)

func main() {
	var showHelp, force bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	flag.BoolVar(&force, "force", false, "overwrite stored models")
	flag.Parse()

	usage := `
Load configurator documents into the database.

Usage:

seed [-h] [-force] [FILE...]

FILE: .yaml, .yml or .json documents; the embedded presets when none are given

example
  seed -force presets/undercounter.yaml
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	docs, err := readDocuments(flag.Args())
	if err != nil {
		log.Fatalf("Failed to read documents: %v", err)
	}

	ctx := context.Background()
	store := services.NewConfigStore(db)
	for _, doc := range docs {
		if report := configdoc.Validate(doc, nil); !report.OK() {
			log.Fatalf("Document %s is invalid: %s", doc.Name, report)
		}
	}

	if !force {
		seeded, err := services.SeedPresets(ctx, store, docs)
		if err != nil {
			log.Fatalf("Failed to seed: %v", err)
		}
		log.Printf("Seeded %d of %d documents", seeded, len(docs))
		return
	}

	for _, doc := range docs {
		_, version, err := store.LoadConfig(ctx, doc.Name)
		if err != nil {
			version = 0
		}
		newVersion, err := store.SaveConfig(ctx, doc.Name, doc, version)
		if err != nil {
			log.Fatalf("Failed to save %s: %v", doc.Name, err)
		}
		log.Printf("Saved %s at version %d", doc.Name, newVersion)
	}
}

func readDocuments(paths []string) ([]configdoc.Document, error) {
	if len(paths) == 0 {
		return data.Presets()
	}

	docs := make([]configdoc.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := configdoc.LoadFile(p)
		if err != nil {
			return nil, err
		}
		if doc.Name == "" {
			return nil, fmt.Errorf("%s: document has no name", p)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
