package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"digitalsight/config"
	"digitalsight/storage"

	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the release asset bucket",
	Long:  `Connect to MinIO and list the objects and folders under a prefix.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		objects, err := storage.NewMinioStore(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		items, prefixes, err := objects.ListAll(ctx, minioPrefix)
		if err != nil {
			log.Fatalf("Failed to list objects: %v", err)
		}

		for _, p := range prefixes {
			fmt.Printf("DIR  %s\n", p)
		}
		for _, item := range items {
			fmt.Printf("%10d  %s  %s\n", item.Size, item.LastModified.Format(time.RFC3339), item.Key)
		}
		fmt.Printf("%d objects, %d folders\n", len(items), len(prefixes))
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "filter objects by prefix, e.g. releases/<id>/")
}
