package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/capture-tracker/internal/app"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/graph"
	"github.com/joseph-ayodele/capture-tracker/internal/semantic"
	"github.com/joseph-ayodele/capture-tracker/internal/server"
	"github.com/joseph-ayodele/capture-tracker/internal/structured"
	"github.com/joseph-ayodele/capture-tracker/internal/tasks"
)

func processCmd() *cobra.Command {
	var (
		contentType string
		imagePath   string
		url         string
		source      string
		priority    int
		noWait      bool
	)

	cmd := &cobra.Command{
		Use:   "process [text]",
		Short: "Run a capture through the pipeline; reads stdin when text is \"-\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(b)
			}

			req := map[string]any{
				"text":     text,
				"source":   source,
				"priority": priority,
				"wait":     !noWait,
			}
			if imagePath != "" {
				img, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				req["image_base64"] = base64.StdEncoding.EncodeToString(img)
			}
			if url != "" {
				req["source_url"] = url
			}
			req["content_type"] = inferType(contentType, text, imagePath, url)

			return call(cmd.Context(), server.MethodProcessCapture, req)
		},
	}

	cmd.Flags().StringVarP(&contentType, "type", "t", "", "text | image | url | mixed (inferred when empty)")
	cmd.Flags().StringVar(&imagePath, "image", "", "image file to OCR")
	cmd.Flags().StringVar(&url, "url", "", "web page to fetch")
	cmd.Flags().StringVar(&source, "source", "manual", "capture source")
	cmd.Flags().IntVar(&priority, "priority", 0, "queue priority; higher runs first")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "return once queued")
	return cmd
}

func inferType(explicit, text, imagePath, url string) string {
	switch {
	case explicit != "":
		return explicit
	case url != "":
		return "url"
	case imagePath != "" && strings.TrimSpace(text) != "":
		return "mixed"
	case imagePath != "":
		return "image"
	}
	return "text"
}

func importCmd() *cobra.Command {
	var includeHidden, dir bool

	cmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Import a file or every supported file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			// A daemon resolves paths on its own filesystem, so only stat in-process.
			if addr == "" && !dir {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				dir = info.IsDir()
			}
			if dir {
				return call(cmd.Context(), server.MethodIngestDirectory, map[string]any{
					"root_path":   path,
					"skip_hidden": !includeHidden,
				})
			}
			return call(cmd.Context(), server.MethodIngestFile, map[string]any{"path": path})
		},
	}

	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "also import dot-files and dot-directories")
	cmd.Flags().BoolVar(&dir, "dir", false, "treat path as a directory")
	return cmd
}

func listCmd() *cobra.Command {
	var (
		contentType string
		status      string
		favorites   bool
		limit       int
		offset      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List captured content, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd.Context(), server.MethodListContent, map[string]any{
				"content_type":  contentType,
				"status":        status,
				"favorite_only": favorites,
				"limit":         limit,
				"offset":        offset,
			})
		},
	}

	cmd.Flags().StringVarP(&contentType, "type", "t", "", "filter by content type")
	cmd.Flags().StringVar(&status, "status", "", "filter by processing status")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "only favorites")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum items")
	cmd.Flags().IntVar(&offset, "offset", 0, "items to skip")
	return cmd
}

func idCmd(use, short, method string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd.Context(), method, map[string]any{"id": args[0]})
		},
	}
}

func showCmd() *cobra.Command {
	return idCmd("show", "Show one content item with its tasks and connections", server.MethodGetContent)
}

func favoriteCmd() *cobra.Command {
	return idCmd("favorite", "Toggle the favorite flag", server.MethodToggleFavorite)
}

func deleteCmd() *cobra.Command {
	return idCmd("delete", "Delete a content item and its tasks", server.MethodDeleteContent)
}

func reprocessCmd() *cobra.Command {
	return idCmd("reprocess", "Run a stored capture through the pipeline again", server.MethodReprocess)
}

func searchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search over completed content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.warm(ctx, newLogger()); err != nil {
				return err
			}
			out, err := s.Call(ctx, server.MethodSearchContent, map[string]any{
				"query": strings.Join(args, " "),
				"limit": limit,
			})
			if err != nil {
				return err
			}
			return printStruct(out)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum hits")
	return cmd
}

func editCmd() *cobra.Command {
	var title, text string

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit the title or text of a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"id": args[0]}
			if cmd.Flags().Changed("title") {
				req["title"] = title
			}
			if cmd.Flags().Changed("text") {
				req["full_text"] = text
			}
			if len(req) == 1 {
				return fmt.Errorf("nothing to edit: pass --title or --text")
			}
			return call(cmd.Context(), server.MethodEditContent, req)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&text, "text", "", "new full text")
	return cmd
}

func tasksCmd() *cobra.Command {
	var (
		contentID string
		openOnly  bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List generated tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd.Context(), server.MethodListTasks, map[string]any{
				"content_id": contentID,
				"open_only":  openOnly,
				"limit":      limit,
			})
		},
	}

	cmd.Flags().StringVar(&contentID, "content", "", "only tasks of this content item")
	cmd.Flags().BoolVar(&openOnly, "open", false, "only tasks not yet completed")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum tasks")

	cmd.AddCommand(idCmd("toggle", "Toggle a task's completion", server.MethodToggleTask))
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		from, to  string
		favorites bool
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export content and tasks to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			out, err := s.Call(ctx, server.MethodExportXLSX, map[string]any{
				"from_date":     from,
				"to_date":       to,
				"favorite_only": favorites,
			})
			if err != nil {
				return err
			}
			xlsx, err := base64.StdEncoding.DecodeString(out.GetFields()["xlsx_base64"].GetStringValue())
			if err != nil {
				return fmt.Errorf("decode workbook: %w", err)
			}
			if err := os.WriteFile(outPath, xlsx, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", outPath, len(xlsx))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "end date YYYY-MM-DD")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "only favorites")
	cmd.Flags().StringVarP(&outPath, "out", "o", "captures.xlsx", "output file")
	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report database and queue health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd.Context(), server.MethodHealth, nil)
		},
	}
}

// analyzeCmd runs the analysis stages on text without storing anything.
func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [text]",
		Short: "Print the semantic analysis, structure, tasks and connections for text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newLogger()
			cfg, err := common.LoadConfigFile(configPath)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			analysis, err := semantic.NewStage(app.NewNLP(cfg, logger), logger).Analyze(ctx, text)
			if err != nil {
				return err
			}
			st := structured.Detect(nil, text)
			ts, err := tasks.NewTemplateGenerator(logger).Generate(ctx, tasks.Input{Text: text, Analysis: analysis, Structured: st})
			if err != nil {
				return err
			}
			conns, err := graph.NewProximityExtractor(logger).Extract(ctx, analysis.Entities, text)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"analysis":    analysis,
				"structured":  st,
				"tasks":       ts,
				"connections": conns,
			})
		},
	}
}
