package main

import (
	"flag"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"storefront-kit/internal/importer"
	"storefront-kit/internal/logging"
)

func main() {
	var (
		filePath string
		outPath  string
	)
	flag.StringVar(&filePath, "file", "", "Path to a metafield definitions CSV export")
	flag.StringVar(&outPath, "out", "", "Where to write the YAML definitions (stdout when empty)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.New(os.Getenv("LOG_LEVEL"), false)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("importer")

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	start := time.Now()
	res, err := importer.NewCSVImporter(f).Run()
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
	for _, row := range res.Skipped {
		logger.Warn("skipped row with unsupported owner", zap.String("row", row))
	}

	out, err := yaml.Marshal(res.Definitions)
	if err != nil {
		logger.Fatal("encode definitions", zap.Error(err))
	}
	if outPath == "" {
		_, _ = os.Stdout.Write(out)
	} else if err := os.WriteFile(outPath, out, 0o644); err != nil {
		logger.Fatal("write definitions", zap.Error(err))
	}

	d := res.Definitions
	logger.Info("definitions imported",
		zap.Int("product", len(d.ProductMetafields)),
		zap.Int("variant", len(d.VariantMetafields)),
		zap.Int("collection", len(d.CollectionMetafields)),
		zap.Int("cartAttributes", len(d.CartAttributes)),
		zap.Duration("took", time.Since(start).Truncate(time.Millisecond)))
}
