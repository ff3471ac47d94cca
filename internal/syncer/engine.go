package syncer

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/wikisync/internal/index"
	"github.com/starford/wikisync/internal/pathcodec"
	"github.com/starford/wikisync/internal/project"
	"github.com/starford/wikisync/internal/scanner"
)

// Engine wires the scanner, codec, ledger and index together for pull, push
// and diff runs. One engine per invocation; runs are synchronous and serial.
type Engine struct {
	layout *project.Layout
	codec  *pathcodec.Codec
	ledger *Ledger
	index  *index.Index
	logger *slog.Logger
}

func NewEngine(layout *project.Layout, codec *pathcodec.Codec, ledger *Ledger, ix *index.Index, logger *slog.Logger) *Engine {
	return &Engine{layout: layout, codec: codec, ledger: ledger, index: ix, logger: logger}
}

// rebuildIndex rescans the tree and rebuilds the content index. Pull calls
// this after writing any file so the index never lags the tree.
func (e *Engine) rebuildIndex() error {
	files, err := scanner.Scan(e.layout, e.codec)
	if err != nil {
		return fmt.Errorf("syncer: rescan: %w", err)
	}
	report, err := e.index.Rebuild(files, e.layout.Read)
	if err != nil {
		return fmt.Errorf("syncer: rebuild index: %w", err)
	}
	e.logger.Info("index rebuilt after pull",
		slog.Int("pages", report.Pages),
		slog.Int("links", report.Links))
	return nil
}

// watermarkKey names the incremental-pull watermark for a namespace set.
// Category pulls never touch a watermark.
func watermarkKey(namespaceIDs []int) string {
	ids := make([]int, len(namespaceIDs))
	copy(ids, namespaceIDs)
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "last_pull:" + strings.Join(parts, ",")
}
