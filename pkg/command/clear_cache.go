package command

import (
	"github.com/spf13/cobra"

	"github.com/bcomnes/cyclekit/pkg/cache"
	"github.com/bcomnes/cyclekit/pkg/enum"
)

const ClearCacheShort = "Clear the cached ORM schema"

// NewClearCache deletes key from c. A nil cache means caching is disabled.
func NewClearCache(c cache.Cache, key string) *cobra.Command {
	if key == "" {
		key = cache.DefaultKey
	}
	return &cobra.Command{
		Use:   enum.ClearCache.String(),
		Short: ClearCacheShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := style(cmd)
			if c == nil {
				out.Note("Schema cache is disabled by configuration. Nothing to clear.")
				return nil
			}
			deleted, err := c.Delete(cmd.Context(), key)
			if err != nil {
				return fail(cmd, "Failed to clear Cycle ORM schema cache: "+err.Error())
			}
			if !deleted {
				out.Note("No cache entry was found to clear.")
				return nil
			}
			out.Success("Cycle ORM schema cache has been cleared successfully.")
			return nil
		},
	}
}
