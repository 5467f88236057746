package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/tendermesh/config"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/server"
	"github.com/hupe1980/tendermesh/workflow"
)

var rootCmd = &cobra.Command{
	Use:   "tendermesh",
	Short: "TenderMesh CLI",
	Long: `TenderMesh turns a tender document into a reviewed outline and a written proposal.
Workflow:
- upload: extract text, analyse requirements and draft the first outline.
- outline feedback / regenerate / confirm: review the outline until it is accepted.
- sections structure / write / edit: derive sections from the outline and draft them.
- assemble: integrate all sections into the final tender document.`,
	SilenceUsage: true,
}

// settings holds configuration for the current invocation: defaults, config
// file, TENDERMESH_* environment and bound flags.
var settings = viper.New()

func main() {
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("store", "", "project store driver (memory, sqlite)")
	rootCmd.PersistentFlags().String("db", "", "sqlite database path")
	rootCmd.PersistentFlags().String("provider", "", "llm provider (openai, qwen, anthropic, ollama, mock)")
	rootCmd.PersistentFlags().String("model", "", "llm model name")
	_ = settings.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = settings.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = settings.BindPFlag("store.driver", rootCmd.PersistentFlags().Lookup("store"))
	_ = settings.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = settings.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = settings.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("model"))
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(outlineCmd())
	rootCmd.AddCommand(sectionsCmd())
	rootCmd.AddCommand(assembleCmd())
	rootCmd.AddCommand(serveCmd())
}

// loadConfig layers the config file named by --config under the bound flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	if err := config.Configure(settings, file); err != nil {
		return nil, err
	}
	return config.FromViper(settings)
}

func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.Close(closeCtx); err != nil {
			rt.logger.Warn("Shutdown incomplete", "error", err)
		}
	}()
	if cfg.Store.Driver == "memory" && cmd.Name() != "serve" {
		rt.logger.Warn("In-memory store selected; state is lost when the command exits", "hint", "use --store sqlite")
	}
	return fn(ctx, rt)
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage tender projects"}
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectShowCmd())
	return prj
}

func projectCreateCmd() *cobra.Command {
	var name, createdBy string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				p, err := rt.mesh.CreateProject(ctx, name, createdBy)
				if err != nil {
					return err
				}
				return printJSONOrTable(p, func(tw table.Writer) {
					tw.AppendHeader(table.Row{"ID", "Name", "Stage"})
					tw.AppendRow(table.Row{p.ID, p.Name, p.Stage})
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&createdBy, "created-by", os.Getenv("USER"), "author of the project")
	return cmd
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				items, err := rt.mesh.ListProjects(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items, func(tw table.Writer) {
					tw.AppendHeader(table.Row{"ID", "Name", "Stage", "Sections", "Updated"})
					for _, p := range items {
						tw.AppendRow(table.Row{p.ID, p.Name, p.Stage, len(p.Sections), p.UpdatedAt.Format(time.RFC3339)})
					}
				})
			})
		},
	}
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				p, err := rt.mesh.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(p, func(tw table.Writer) {
					tw.AppendRow(table.Row{"ID", p.ID})
					tw.AppendRow(table.Row{"Name", p.Name})
					tw.AppendRow(table.Row{"Created by", p.CreatedBy})
					tw.AppendRow(table.Row{"Stage", p.Stage})
					tw.AppendRow(table.Row{"Document", p.RequirementDocumentRef})
					tw.AppendRow(table.Row{"Requirements", truncate(p.StructuredRequirements, 80)})
					if o, err := p.DecodeOutline(); err == nil {
						tw.AppendRow(table.Row{"Outline", fmt.Sprintf("%s v%d (%s)", o.ID, o.Version, o.Status)})
					}
					tw.AppendRow(table.Row{"Sections", len(p.Sections)})
					tw.AppendRow(table.Row{"Assembled", p.FinalDocument != ""})
				})
			})
		},
	}
}

func uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <project-id> <file|->",
		Short: "Upload a tender document and generate the first outline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return printResult(rt.mesh.Upload(ctx, args[0], data))
			})
		},
	}
}

func outlineCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "outline", Short: "Review the tender outline"}
	cmd.AddCommand(outlineShowCmd())
	cmd.AddCommand(outlineFeedbackCmd())
	cmd.AddCommand(outlineRegenerateCmd())
	cmd.AddCommand(outlineConfirmCmd())
	return cmd
}

func outlineShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Print the current outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				o, err := rt.mesh.Outline(ctx, args[0])
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printJSON(o)
				}
				fmt.Printf("Outline %s v%d (%s)\n\n%s\n", o.ID, o.Version, o.Status, o.Content)
				if o.UserFeedback != "" {
					fmt.Printf("\nFeedback: %s\n", o.UserFeedback)
				}
				return nil
			})
		},
	}
}

func outlineFeedbackCmd() *cobra.Command {
	var outlineID, message string
	cmd := &cobra.Command{
		Use:   "feedback <project-id>",
		Short: "Submit feedback on the current outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return printResult(rt.mesh.SubmitOutlineFeedback(ctx, args[0], outlineID, message))
			})
		},
	}
	cmd.Flags().StringVar(&outlineID, "outline-id", "", "outline being reviewed")
	cmd.Flags().StringVarP(&message, "message", "m", "", "feedback text")
	return cmd
}

func outlineRegenerateCmd() *cobra.Command {
	var outlineID string
	cmd := &cobra.Command{
		Use:   "regenerate <project-id>",
		Short: "Revise the outline from its recorded feedback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return printResult(rt.mesh.RegenerateOutline(ctx, args[0], outlineID))
			})
		},
	}
	cmd.Flags().StringVar(&outlineID, "outline-id", "", "outline being revised")
	return cmd
}

func outlineConfirmCmd() *cobra.Command {
	var outlineID string
	cmd := &cobra.Command{
		Use:   "confirm <project-id>",
		Short: "Confirm the current outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return printResult(rt.mesh.ConfirmOutline(ctx, args[0], outlineID))
			})
		},
	}
	cmd.Flags().StringVar(&outlineID, "outline-id", "", "outline being confirmed")
	return cmd
}

func sectionsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "sections", Short: "Structure and write tender sections"}
	cmd.AddCommand(sectionsStructureCmd())
	cmd.AddCommand(sectionsWriteCmd())
	cmd.AddCommand(sectionsListCmd())
	cmd.AddCommand(sectionsEditCmd())
	return cmd
}

func sectionsStructureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "structure <project-id>",
		Short: "Derive sections from the confirmed outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return printSections(rt.mesh.StructureContent(ctx, args[0]))
			})
		},
	}
}

func sectionsWriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write <project-id>",
		Short: "Draft every pending section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return printSections(rt.mesh.WriteSections(ctx, args[0]))
			})
		},
	}
}

func sectionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				sections, err := rt.mesh.Sections(ctx, args[0])
				if err != nil {
					return err
				}
				return renderSections(sections)
			})
		},
	}
}

func sectionsEditCmd() *cobra.Command {
	var content, path string
	cmd := &cobra.Command{
		Use:   "edit <project-id> <section-id>",
		Short: "Replace a section's content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if path != "" {
				data, err := readInput(cmd.InOrStdin(), path)
				if err != nil {
					return err
				}
				content = string(data)
			}
			if content == "" {
				return fmt.Errorf("--content or --file required")
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return printSections(rt.mesh.UpdateSection(ctx, args[0], args[1], content))
			})
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "new section content")
	cmd.Flags().StringVarP(&path, "file", "f", "", "read content from file (- for stdin)")
	return cmd
}

func assembleCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "assemble <project-id>",
		Short: "Integrate all sections into the final tender document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				res, err := rt.mesh.AssembleTender(ctx, args[0])
				if err != nil {
					return failure(res, err)
				}
				doc := ""
				if res.Project != nil {
					doc = res.Project.FinalDocument
				}
				if out != "" {
					if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
						return err
					}
					fmt.Printf("Tender written to %s (stage %s)\n", out, res.Stage)
					return nil
				}
				if jsonOutput() {
					return printJSON(map[string]any{"projectId": res.ProjectID, "stage": res.Stage, "finalDocument": doc})
				}
				fmt.Println(doc)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the document to a file")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				if addr == "" {
					addr = rt.cfg.Server.Addr
				}
				if basePath == "" {
					basePath = rt.cfg.Server.BasePath
				}
				handler, err := server.New(server.Config{Mesh: rt.mesh, BasePath: basePath, Logger: rt.logger})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				rt.logger.Info("Serving TenderMesh API", "addr", addr, "base_path", basePath)
				fmt.Printf("Serving TenderMesh API on http://%s%s (OpenAPI at %s/openapi.json, docs at %s/docs)\n", addr, basePath, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from config)")
	return cmd
}

// failure reports the stage a failed operation left the project in.
func failure(res workflow.Result, err error) error {
	if res.Stage != "" {
		return fmt.Errorf("%w (stage %s)", err, res.Stage)
	}
	return err
}

func printResult(res workflow.Result, err error) error {
	if err != nil {
		return failure(res, err)
	}
	if jsonOutput() {
		return printJSON(res)
	}
	tw := newTable()
	tw.AppendRow(table.Row{"Project", res.ProjectID})
	tw.AppendRow(table.Row{"Stage", res.Stage})
	if res.Outline != nil {
		tw.AppendRow(table.Row{"Outline", res.Outline.ID})
		tw.AppendRow(table.Row{"Version", res.Outline.Version})
		tw.AppendRow(table.Row{"Status", res.Outline.Status})
	}
	tw.Render()
	if res.Outline != nil {
		fmt.Printf("\n%s\n", res.Outline.Content)
	}
	return nil
}

func printSections(res workflow.Result, err error) error {
	if err != nil {
		return failure(res, err)
	}
	var sections []core.Section
	if res.Project != nil {
		sections = res.Project.Sections
	}
	return renderSections(sections)
}

func renderSections(sections []core.Section) error {
	return printJSONOrTable(sections, func(tw table.Writer) {
		tw.AppendHeader(table.Row{"#", "ID", "Title", "Status", "Chars"})
		for _, s := range sections {
			tw.AppendRow(table.Row{s.Order, s.ID, s.Title, s.Status, len(s.Content)})
		}
	})
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	return tw
}

func printJSONOrTable(v any, fill func(tw table.Writer)) error {
	if jsonOutput() {
		return printJSON(v)
	}
	tw := newTable()
	fill(tw)
	tw.Render()
	return nil
}

func jsonOutput() bool { return settings.GetBool("json") }

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
