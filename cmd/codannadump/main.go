// Command codannadump is a smoke-test CLI exercising a DocumentIndex
// end to end: it indexes a handful of symbols across two languages,
// wires up a relationship graph, commits, then runs each of the query
// operations and prints what it finds.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tokoba/codanna-go/internal/docindex"
	"github.com/tokoba/codanna-go/internal/ids"
	"github.com/tokoba/codanna-go/internal/relationship"
	"github.com/tokoba/codanna-go/internal/symbol"
	"github.com/tokoba/codanna-go/pkg/version"
)

func main() {
	dir := flag.String("dir", "", "index directory (defaults to a temp dir)")
	flag.Parse()

	fmt.Println(version.String())

	if *dir == "" {
		tmp, err := os.MkdirTemp("", "codannadump-*")
		if err != nil {
			fatal(err)
		}
		*dir = tmp
		fmt.Printf("using temp dir: %s\n", tmp)
	}

	di, err := docindex.Open(docindex.Config{Dir: *dir})
	if err != nil {
		fatal(err)
	}
	defer di.Close()

	ctx := context.Background()
	if err := seed(di); err != nil {
		fatal(err)
	}

	stats, err := di.Info()
	if err != nil {
		fatal(err)
	}
	fmt.Printf("\nindex stats: %d docs (%s), generation %d\n", stats.DocCount, stats.DocCountHuman, stats.Generation)

	byName, err := di.FindSymbolsByName(ctx, "HandleRequest", "")
	if err != nil {
		fatal(err)
	}
	fmt.Printf("\nFindSymbolsByName(\"HandleRequest\"): %d match(es)\n", len(byName))
	for _, s := range byName {
		fmt.Printf("  %s [%s] %s\n", s.Name, s.Language, s.Signature)
	}

	hits, err := di.Search(ctx, "Config", 10)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("\nSearch(\"Config\"): %d hit(s)\n", len(hits))
	for _, s := range hits {
		fmt.Printf("  %s [%s]\n", s.Name, s.Language)
	}

	if len(byName) > 0 {
		from, err := di.GetRelationshipsFrom(ctx, byName[0].Id)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("\nGetRelationshipsFrom(%s): %d edge(s)\n", byName[0].Name, len(from))

		radius, err := di.GetImpactRadius(ctx, byName[0].Id, 3)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("GetImpactRadius(%s, depth=3): %v\n", byName[0].Name, radius)
	}

	paths, err := di.GetAllIndexedPaths(ctx)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("\nindexed paths: %v\n", paths)
}

// seed populates the index with a small two-language symbol graph:
// a Go HandleRequest calling ParseConfigFile, and a Python equivalent, so
// the language filter and the call graph both have something to show.
func seed(di *docindex.DocumentIndex) error {
	if err := di.StartBatch(); err != nil {
		return err
	}

	goFile, _ := ids.NewFileId(1)
	pyFile, _ := ids.NewFileId(2)

	if err := di.StoreFileInfo(goFile, "server.go", "go", "abc123", 1, 2); err != nil {
		return err
	}
	if err := di.StoreFileInfo(pyFile, "server.py", "python", "def456", 1, 1); err != nil {
		return err
	}

	handleReq := symbol.New(0, "HandleRequest", symbol.KindFunction, goFile, ids.NewRange(10, 0, 25, 1))
	handleReq.Language = "go"
	handleReq.Signature = "func HandleRequest(w http.ResponseWriter, r *http.Request)"
	handleReqID, err := di.AddSymbol(handleReq)
	if err != nil {
		return err
	}

	parseConfig := symbol.New(0, "ParseConfigFile", symbol.KindFunction, goFile, ids.NewRange(30, 0, 45, 1))
	parseConfig.Language = "go"
	parseConfig.Signature = "func ParseConfigFile(path string) (*Config, error)"
	parseConfigID, err := di.AddSymbol(parseConfig)
	if err != nil {
		return err
	}

	handleReqPy := symbol.New(0, "handle_request", symbol.KindFunction, pyFile, ids.NewRange(5, 0, 15, 1))
	handleReqPy.Language = "python"
	handleReqPy.Signature = "def handle_request(request):"
	if _, err := di.AddSymbol(handleReqPy); err != nil {
		return err
	}

	if err := di.AddImport(goFile, "net/http", "", false, false); err != nil {
		return err
	}
	if err := di.AddRelationship(handleReqID, parseConfigID, relationship.New(relationship.Calls).WithMetadata(relationship.Metadata{}.AtPosition(12, 4))); err != nil {
		return err
	}

	return di.CommitBatch(context.Background())
}

func fatal(err error) {
	slog.Error("codannadump failed", slog.String("error", err.Error()))
	os.Exit(1)
}
