// Package main provides the NornicDB export CLI entry point: a single
// `export` subcommand that streams a NornicDB graph to a JSONL file (see
// pkg/export), plus a `version` command, matching cmd/nornicdb's
// serve/init command layout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nornicdb/graphexport/pkg/config"
	"github.com/nornicdb/graphexport/pkg/export"
	"github.com/nornicdb/graphexport/pkg/storage"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nornicdb-export",
		Short: "Stream a NornicDB graph to a JSON-Lines export file",
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nornicdb-export v%s (%s)\n", version, commit)
		},
	})

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export all nodes and relationships to a JSONL snapshot",
		RunE:  runExport,
	}
	exportCmd.Flags().String("data-dir", "./data", "Source data directory (BadgerDB-backed)")
	exportCmd.Flags().Bool("memory", false, "Use an in-memory source instead of BadgerDB (for smoke tests)")
	exportCmd.Flags().String("config", "", "Optional YAML file of export tuning overrides, layered between env vars and flags")
	exportCmd.Flags().String("output-dir", "", "Directory to write export.jsonl into (overrides NORNICDB_EXPORT_OUTPUT_DIR)")
	exportCmd.Flags().Int("batch-size", 0, "Records per paginator fetch (overrides NORNICDB_EXPORT_BATCH_SIZE)")
	exportCmd.Flags().Int("max-retries", 0, "Max retry attempts per database call (overrides NORNICDB_EXPORT_MAX_RETRIES)")
	exportCmd.Flags().Bool("enable-hashed-ids", false, "Include content-addressed stable_id on every record")
	exportCmd.Flags().Bool("skip-schema-collection", false, "Omit labels/types from the metadata header")
	exportCmd.Flags().Bool("validate-json-output", false, "Re-parse each record before writing it")
	rootCmd.AddCommand(exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	useMemory, _ := cmd.Flags().GetBool("memory")
	configFile, _ := cmd.Flags().GetString("config")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	enableHashedIDs, _ := cmd.Flags().GetBool("enable-hashed-ids")
	skipSchema, _ := cmd.Flags().GetBool("skip-schema-collection")
	validateJSON, _ := cmd.Flags().GetBool("validate-json-output")

	cfg := config.LoadFromEnv()
	if configFile != "" {
		if err := config.LoadYAMLOverrides(configFile, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "loading config file: %v\n", err)
			os.Exit(6)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(6)
	}

	exportCfg := export.DefaultConfig()
	exportCfg.OutputDir = cfg.Export.OutputDir
	exportCfg.BatchSize = cfg.Export.BatchSize
	exportCfg.MaxRetries = cfg.Export.MaxRetries
	exportCfg.RetryDelay = cfg.Export.RetryDelay
	exportCfg.MaxRetryDelay = cfg.Export.MaxRetryDelay
	exportCfg.QueryTimeout = cfg.Export.QueryTimeout
	exportCfg.SkipSchemaCollection = cfg.Export.SkipSchemaCollection
	exportCfg.ValidateJSONOutput = cfg.Export.ValidateJSONOutput
	exportCfg.AllowInsecure = cfg.Export.AllowInsecure
	exportCfg.JSONBufferSizeKB = cfg.Export.JSONBufferSizeKB
	exportCfg.MaxPathLength = cfg.Export.MaxPathLength
	exportCfg.PathFullLimit = cfg.Export.PathFullLimit
	exportCfg.PathCompactLimit = cfg.Export.PathCompactLimit
	exportCfg.PathPropertyDepth = cfg.Export.PathPropertyDepth
	exportCfg.MaxNestedDepth = cfg.Export.MaxNestedDepth
	exportCfg.NestedShallowDepth = cfg.Export.NestedShallowDepth
	exportCfg.NestedReferenceDepth = cfg.Export.NestedReferenceDepth
	exportCfg.MaxCollectionItems = cfg.Export.MaxCollectionItems
	exportCfg.MaxLabelsPerNode = cfg.Export.MaxLabelsPerNode
	exportCfg.MaxLabelsInReferenceMode = cfg.Export.MaxLabelsInReferenceMode
	exportCfg.MaxLabelsInPathCompact = cfg.Export.MaxLabelsInPathCompact
	exportCfg.EnableHashedIDs = cfg.Export.EnableHashedIDs
	exportCfg.MaxMemoryMB = cfg.Export.MaxMemoryMB
	exportCfg.ProgressInterval = cfg.Export.ProgressInterval

	if outputDir != "" {
		exportCfg.OutputDir = outputDir
	}
	if batchSize > 0 {
		exportCfg.BatchSize = batchSize
	}
	if maxRetries > 0 {
		exportCfg.MaxRetries = maxRetries
	}
	if enableHashedIDs {
		exportCfg.EnableHashedIDs = true
	}
	if skipSchema {
		exportCfg.SkipSchemaCollection = true
	}
	if validateJSON {
		exportCfg.ValidateJSONOutput = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "export: cancellation requested, finishing current batch...")
		cancel()
	}()

	var source export.GraphSource
	errSink := export.NewAccumulator()

	if useMemory {
		engine := storage.NewMemoryEngine()
		defer engine.Close()
		source = export.NewMemorySource(engine, errSink, "nornicdb-export", version)
	} else {
		engine, err := storage.NewBadgerEngine(dataDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening database: %v\n", err)
			os.Exit(export.ExitCode(err))
		}
		defer engine.Close()
		source = export.NewBadgerSource(engine, errSink, "nornicdb-export", version)
	}

	logger := export.DefaultLogger()
	progressSink := export.ProgressSinkFunc(func(e export.ProgressEvent) {
		fmt.Fprintf(os.Stderr, "export: %s records=%d bytes=%d elapsed=%s\n",
			e.Kind, e.RecordsEmitted, e.BytesWritten, e.Elapsed.Round(time.Second))
	})

	orch := export.NewOrchestrator(source, exportCfg, logger, progressSink, errSink, "nornicdb-export", version)

	start := time.Now()
	result, err := orch.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(export.ExitCode(err))
	}

	fmt.Printf("export complete: %s\n", result.OutputPath)
	fmt.Printf("  nodes:          %d\n", result.NodesExported)
	fmt.Printf("  relationships:  %d\n", result.RelationshipsExported)
	fmt.Printf("  errors:         %d (has_errors=%v)\n", result.TotalErrors, result.HasErrors)
	fmt.Printf("  duration:       %s\n", time.Since(start).Round(time.Millisecond))

	if result.HasErrors {
		os.Exit(5)
	}
	return nil
}
