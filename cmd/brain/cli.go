package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/extract"
	"github.com/hpungsan/brain/internal/ops"
	"github.com/hpungsan/brain/internal/web"
)

// maxStdinBytes bounds text piped to the CLI.
const maxStdinBytes = 8 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(svc *ops.Service) *cli.App {
	app := &cli.App{
		Name:    "brain",
		Usage:   "Personal knowledge capture and semantic search",
		Version: Version,
		Commands: []*cli.Command{
			processCmd(svc),
			analyzeCmd(svc),
			captureCmd(svc),
			ingestCmd(svc),
			searchCmd(svc),
			fetchCmd(svc),
			listCmd(svc),
			deleteCmd(svc),
			purgeCmd(svc),
			serveCmd(svc),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// processCmd creates the process command.
func processCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:      "process",
		Usage:     "Extract, normalize, classify and summarize text without storing it (reads stdin when no files are given)",
		ArgsUsage: "[file...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name for stdin text"},
			&cli.IntFlag{Name: "concurrency", Aliases: []string{"c"}, Usage: "Parallel workers for several files (default 4)"},
			&cli.StringFlag{Name: "vault", Usage: "Process every .md note under `DIR` recursively (an Obsidian vault)"},
			&cli.BoolFlag{Name: "progress", Usage: "Report extraction progress on stderr"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("vault") {
				if c.NArg() > 0 {
					return outputError(errors.NewInvalidRequest("--vault does not take file arguments"))
				}
				output, err := svc.ProcessVault(c.Context, c.String("vault"), c.Int("concurrency"))
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}
			if c.NArg() > 1 {
				sources := make([]extract.Source, 0, c.NArg())
				for _, path := range c.Args().Slice() {
					sources = append(sources, extract.FileSource(path))
				}
				output, err := svc.ProcessBatch(c.Context, sources, c.Int("concurrency"))
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			src, err := sourceFromArgs(c)
			if err != nil {
				return outputError(err)
			}
			output, err := svc.Process(c.Context, src, progressFunc(c))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// analyzeCmd creates the analyze command.
func analyzeCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Ask the analysis model for title, summary, tags and category (reads stdin when no file is given)",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name for stdin text"},
		},
		Action: func(c *cli.Context) error {
			src, err := sourceFromArgs(c)
			if err != nil {
				return outputError(err)
			}
			processed, err := svc.Process(c.Context, src, nil)
			if err != nil {
				return outputError(err)
			}
			output, err := svc.Analyze(c.Context, ops.AnalyzeInput{NormalizedText: processed.NormalizedText})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// captureCmd creates the capture command.
func captureCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Usage:     "Process a file or stdin text and store it as a note",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name for stdin text"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Replace the suggested title"},
			&cli.StringFlag{Name: "summary", Usage: "Replace the extractive summary"},
			&cli.StringFlag{Name: "category", Usage: "Replace the detected content type"},
			&cli.StringFlag{Name: "source", Usage: "Replace the source name"},
			&cli.StringFlag{Name: "tags", Usage: "Replace extracted tags (comma-separated)"},
			&cli.BoolFlag{Name: "progress", Usage: "Report extraction progress on stderr"},
		},
		Action: func(c *cli.Context) error {
			src, err := sourceFromArgs(c)
			if err != nil {
				return outputError(err)
			}
			if err := svc.EnsureVectors(c.Context); err != nil {
				return outputError(err)
			}

			overrides := ops.Overrides{
				Title:    optionalString(c, "title"),
				Summary:  optionalString(c, "summary"),
				Category: optionalString(c, "category"),
				Source:   optionalString(c, "source"),
			}
			if c.IsSet("tags") {
				overrides.Tags = parseTags(c.String("tags"))
			}

			output, err := svc.Capture(c.Context, src, overrides, progressFunc(c))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// ingestCmd creates the ingest command.
func ingestCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Store reviewed note text from stdin (or a JSON ingest payload with --json)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Read {normalizedText, title, summary, tags, category, originalText, source} from stdin"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Note title"},
			&cli.StringFlag{Name: "summary", Usage: "Note summary"},
			&cli.StringFlag{Name: "category", Usage: "Note category"},
			&cli.StringFlag{Name: "source", Usage: "Where the note came from"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
		},
		Action: func(c *cli.Context) error {
			var input ops.IngestInput
			if stdinHasData() {
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				if c.Bool("json") {
					if err := json.Unmarshal([]byte(text), &input); err != nil {
						return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid JSON: %v", err)))
					}
				} else {
					input.NormalizedText = text
				}
			}

			if v := c.String("title"); v != "" {
				input.Title = v
			}
			if v := c.String("summary"); v != "" {
				input.Summary = v
			}
			if v := c.String("category"); v != "" {
				input.Category = v
			}
			if v := c.String("source"); v != "" {
				input.Source = v
			}
			if c.IsSet("tags") {
				input.Tags = parseTags(c.String("tags"))
			}

			if err := svc.EnsureVectors(c.Context); err != nil {
				return outputError(err)
			}
			output, err := svc.Ingest(c.Context, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Semantic search over stored notes",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "top-k", Aliases: []string{"k"}, Value: ops.DefaultSearchTopK, Usage: "Number of results (max 50)"},
		},
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return outputError(errors.NewInvalidRequest("query is required"))
			}
			output, err := svc.Search(c.Context, ops.SearchInput{
				Query: query,
				TopK:  c.Int("top-k"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a note by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted notes"},
			&cli.BoolFlag{Name: "no-text", Usage: "Exclude normalized and original text from output"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FetchInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
			}
			if c.Bool("no-text") {
				includeText := false
				input.IncludeText = &includeText
			}

			output, err := ops.Fetch(c.Context, svc.DB, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List notes, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "Filter by category"},
			&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max results (max 100)"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Pagination offset"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted notes"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, svc.DB, ops.ListInput{
				Category:       c.String("category"),
				Tag:            c.String("tag"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a note and remove it from search",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := svc.Delete(c.Context, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted notes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := svc.Purge(c.Context, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the browser UI and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config, 127.0.0.1)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (default from config, 8377)"},
		},
		Action: func(c *cli.Context) error {
			bind := svc.Config.Web.Bind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := svc.Config.Web.Port
			if c.IsSet("port") {
				port = c.Int("port")
			}

			restricted := svc.Restricted()
			if err := restricted.EnsureVectors(c.Context); err != nil {
				return outputError(err)
			}
			srv, err := web.NewServer(restricted, Version, bind, port)
			if err != nil {
				return outputError(err)
			}
			return web.Run(srv, restricted.Log)
		},
	}
}

// Helper functions

// sourceFromArgs reads a file argument, or stdin text when there is none.
func sourceFromArgs(c *cli.Context) (extract.Source, error) {
	if c.NArg() > 0 {
		return extract.FileSource(c.Args().First()), nil
	}
	if !stdinHasData() {
		return extract.Source{}, errors.NewInvalidRequest("pass a file or pipe text via stdin")
	}
	text, err := readStdin(maxStdinBytes)
	if err != nil {
		return extract.Source{}, errors.NewInvalidRequest(err.Error())
	}
	src := extract.TextSource(text)
	src.Name = c.String("name")
	return src, nil
}

// progressFunc prints extraction progress to stderr when --progress is set.
func progressFunc(c *cli.Context) extract.ProgressFunc {
	if !c.Bool("progress") {
		return nil
	}
	return func(p extract.Progress) {
		fmt.Fprintf(os.Stderr, "[%s] %3d%% %s\n", p.Stage, p.Percent, p.Message)
	}
}

// optionalString returns a pointer to the flag value when the flag was set.
func optionalString(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if bErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", bErr.Code, bErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin, refusing more than maxBytes.
func readStdin(maxBytes int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("stdin exceeds %d bytes", maxBytes)
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
