package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the lookup cache",
	Long:  "Commands for reporting, sweeping, clearing and invalidating cached publication searches and provider results.",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the cache backend and entry count",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *cache.Cache) error {
			info, err := c.Info(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Backend:\t%s\nEntries:\t%d\n", info.Backend, info.Entries)
			return nil
		})
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evict expired entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *cache.Cache) error {
			n, err := c.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			zap.L().Info("cache swept", zap.Int("removed", n))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", n)
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *cache.Cache) error {
			if err := c.Clear(cmd.Context()); err != nil {
				return err
			}
			zap.L().Info("cache cleared")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
			return nil
		})
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <key> | --namespace <ns> <part>...",
	Short: "Remove a single cache entry",
	Long: `Remove a single cache entry, either by its stored key ("namespace:sha256")
or, with --namespace, by the raw parts the key is derived from:

  identify: <source> <keyword> <years_back> <max_results>
  enrich:   <provider> <field_group> <identity_key>

The identity key is the normalized "name|company" of a Lead.`,
	Example: `  prospect-cli cache invalidate --namespace identify pubmed dili 2 100
  prospect-cli cache invalidate --namespace enrich hunter email "jane doe|emulate"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := invalidateKey(cmd, args)
		if err != nil {
			return err
		}
		return withCache(cmd, func(c *cache.Cache) error {
			if err := c.Invalidate(cmd.Context(), key); err != nil {
				return err
			}
			zap.L().Info("cache entry invalidated", zap.String("key", key))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %s\n", key)
			return nil
		})
	},
}

// invalidateKey returns the stored key named by args. With --namespace the
// args are hashed the way the pipeline stages derive their keys.
func invalidateKey(cmd *cobra.Command, args []string) (string, error) {
	ns, _ := cmd.Flags().GetString("namespace")
	switch ns {
	case "":
		if len(args) != 1 {
			return "", eris.Errorf("cache: invalidate takes one stored key, got %d args (use --namespace to pass key parts)", len(args))
		}
		return args[0], nil
	case cache.NamespaceIdentify, cache.NamespaceEnrich:
		return cache.Key(ns, args...), nil
	default:
		return "", eris.Errorf("cache: unknown namespace %q (want %s or %s)", ns, cache.NamespaceIdentify, cache.NamespaceEnrich)
	}
}

func withCache(cmd *cobra.Command, fn func(c *cache.Cache) error) error {
	if err := cfg.Validate("cache"); err != nil {
		return err
	}
	c, err := initCache(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	return fn(c)
}

func init() {
	cacheInvalidateCmd.Flags().String("namespace", "", "hash the args as key parts in this namespace (identify or enrich)")
	cacheCmd.AddCommand(cacheInfoCmd, cacheSweepCmd, cacheClearCmd, cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}
