package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/skylens/aroverlay/internal/api"
	"github.com/skylens/aroverlay/internal/catalog"
	"github.com/skylens/aroverlay/internal/config"
	"github.com/skylens/aroverlay/pkg/poi"

	"github.com/spf13/viper"
)

// catalogEntry is the JSON shape used by the import/export commands.
type catalogEntry struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Altitude  float64           `json:"altitude,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// runSubcommand handles the catalog maintenance commands:
//
//	aroverlay import <file>   load annotations from a JSON file into the catalog
//	aroverlay export <file>   dump the catalog to a JSON file
//	aroverlay fetch [set]     pull an annotation set from the POI service into the catalog
//	aroverlay push [set]      upload the catalog as an annotation set to the POI service
func runSubcommand(args []string) error {
	source, err := catalog.New(config.GetCatalogConfig(), slogManager.Logger())
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer source.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch strings.ToLower(args[0]) {
	case "import":
		if len(args) < 2 {
			return fmt.Errorf("usage: %s import <file>", appName)
		}
		return importCatalog(ctx, source, args[1])
	case "export":
		if len(args) < 2 {
			return fmt.Errorf("usage: %s export <file>", appName)
		}
		return exportCatalog(ctx, source, args[1])
	case "fetch":
		set := ""
		if len(args) > 1 {
			set = args[1]
		}
		return fetchCatalog(ctx, source, set)
	case "push":
		set := ""
		if len(args) > 1 {
			set = args[1]
		}
		return pushCatalog(ctx, source, set)
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func importCatalog(ctx context.Context, source catalog.Source, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var entries []catalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	annotations := make([]poi.Annotation, 0, len(entries))
	for _, e := range entries {
		annotations = append(annotations, poi.Annotation{
			ID:    e.ID,
			Title: e.Title,
			Location: poi.Location{
				Latitude:  e.Latitude,
				Longitude: e.Longitude,
				Altitude:  e.Altitude,
			},
			Tags: e.Tags,
		})
	}

	if err := source.Save(ctx, annotations); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	fmt.Printf("Imported %d annotations from %s\n", len(annotations), path)
	return nil
}

func exportCatalog(ctx context.Context, source catalog.Source, path string) error {
	annotations, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	entries := make([]catalogEntry, 0, len(annotations))
	for _, a := range annotations {
		entries = append(entries, catalogEntry{
			ID:        a.ID,
			Title:     a.Title,
			Latitude:  a.Location.Latitude,
			Longitude: a.Location.Longitude,
			Altitude:  a.Location.Altitude,
			Tags:      a.Tags,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Exported %d annotations to %s\n", len(entries), path)
	return nil
}

func fetchCatalog(ctx context.Context, source catalog.Source, set string) error {
	client := api.New(viper.GetString("api.serverUrl"), viper.GetString("api.apiKey"))
	annotations, err := client.FetchAnnotations(ctx, set)
	if err != nil {
		return fmt.Errorf("failed to fetch annotation set: %w", err)
	}

	if err := source.Save(ctx, annotations); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	fmt.Printf("Fetched %d annotations into the catalog\n", len(annotations))
	return nil
}

func pushCatalog(ctx context.Context, source catalog.Source, set string) error {
	annotations, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	client := api.New(viper.GetString("api.serverUrl"), viper.GetString("api.apiKey"))
	if err := client.PushAnnotations(ctx, set, annotations); err != nil {
		return fmt.Errorf("failed to push annotation set: %w", err)
	}
	fmt.Printf("Pushed %d annotations to the POI service\n", len(annotations))
	return nil
}
