package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"digitalsight/config"
	"digitalsight/core/export"
	"digitalsight/model"
	"digitalsight/repository"
	"digitalsight/store"

	"github.com/spf13/cobra"
)

var (
	exportReleaseID string
	exportOut       string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a release as a delivery sheet",
	Long:  `Render the metadata delivery sheet for one release as CSV, straight from the database.`,
	Run: func(cmd *cobra.Command, args []string) {
		if exportReleaseID == "" {
			log.Fatal("--release is required")
		}

		cfg := config.Load()
		db, err := store.ConnectGorm(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		docs := store.NewGormStore(db)

		releaseRepo := repository.NewDocReleaseRepository(docs)
		artistRepo := repository.NewDocArtistRepository(docs)
		labelRepo := repository.NewDocLabelRepository(docs)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		release, err := releaseRepo.GetReleaseByID(ctx, exportReleaseID)
		if err != nil {
			log.Fatalf("Failed to load release: %v", err)
		}

		labels, err := labelRepo.GetAllLabels(ctx)
		if err != nil {
			log.Fatalf("Failed to load labels: %v", err)
		}
		artistsByID := make(map[string]*model.Artist)
		labelsByID := make(map[string]*model.Label)
		for _, label := range labels {
			labelsByID[label.ID] = label
			artists, err := artistRepo.GetArtistsByLabel(ctx, label.ID)
			if err != nil {
				log.Fatalf("Failed to load artists for label %s: %v", label.ID, err)
			}
			for _, artist := range artists {
				artistsByID[artist.ID] = artist
			}
		}

		rows := export.MapReleaseToRows(release, artistsByID, labelsByID)
		encoder := export.NewCSVEncoder()
		data, err := encoder.Encode(export.ExportHeaders, rows)
		if err != nil {
			log.Fatalf("Failed to encode sheet: %v", err)
		}

		if exportOut == "" {
			fmt.Println(string(data))
			return
		}
		if err := os.WriteFile(exportOut, data, 0644); err != nil {
			log.Fatalf("Failed to write %s: %v", exportOut, err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(rows), exportOut)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportReleaseID, "release", "r", "", "release id to export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (stdout when omitted)")
}
