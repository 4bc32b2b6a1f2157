package storage

import (
	"context"
	"fmt"

	"digitalsight/logger"
)

// ReleaseAssetPrefixes returns the object namespaces owned by a release.
func ReleaseAssetPrefixes(releaseID string) []string {
	return []string{
		fmt.Sprintf("releases/%s/artwork", releaseID),
		fmt.Sprintf("releases/%s/audio", releaseID),
	}
}

// PurgeReleaseAssets removes every audio and artwork object belonging to a
// release. The metadata document is untouched; only binaries go.
//
// The purge is best-effort and idempotent: a prefix with nothing under it is
// a silent no-op, and individual delete failures are logged and skipped
// rather than aborting the traversal.
func PurgeReleaseAssets(ctx context.Context, objects ObjectStore, releaseID string) error {
	for _, prefix := range ReleaseAssetPrefixes(releaseID) {
		if err := purgePrefix(ctx, objects, prefix); err != nil {
			return err
		}
	}
	logger.Info("purged release assets", logger.String("releaseId", releaseID))
	return nil
}

// purgePrefix walks one folder level, deletes its objects and recurses into
// sub-prefixes.
func purgePrefix(ctx context.Context, objects ObjectStore, prefix string) error {
	items, prefixes, err := objects.ListAll(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	for _, item := range items {
		if err := objects.DeleteObject(ctx, item.Key); err != nil {
			logger.Warn("failed to delete object, skipping",
				logger.String("key", item.Key),
				logger.ErrorField(err))
		}
	}

	for _, sub := range prefixes {
		if err := purgePrefix(ctx, objects, sub); err != nil {
			return err
		}
	}

	return nil
}
