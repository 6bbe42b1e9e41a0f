package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/io"
	"github.com/matzehuels/riglink/pkg/scene"
)

// sceneCommand creates the scene management command.
func (c *CLI) sceneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Create, inspect and exchange scenes",
	}

	cmd.AddCommand(c.sceneCreateCommand())
	cmd.AddCommand(c.sceneListCommand())
	cmd.AddCommand(c.sceneShowCommand())
	cmd.AddCommand(c.sceneAddLayerCommand())
	cmd.AddCommand(c.sceneExportCommand())
	cmd.AddCommand(c.sceneImportCommand())
	cmd.AddCommand(c.sceneUndoCommand())
	cmd.AddCommand(c.sceneDeleteCommand())

	return cmd
}

// sceneCreateCommand creates the "scene create" subcommand.
func (c *CLI) sceneCreateCommand() *cobra.Command {
	var cfg scene.Config
	var fps float64

	cmd := &cobra.Command{
		Use:   "create <scene>",
		Short: "Create an empty scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Name = args[0]
			if fps < 0 {
				return errors.New(errors.ErrCodeInvalidInput, "--fps must be positive")
			}
			if fps > 0 {
				cfg.FrameDuration = 1 / fps
			}
			return c.withWorkspace(cmd.Context(), func(ws *workspace) error {
				s, err := ws.scenes.Create(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				printSuccess("Created scene %s", StyleHighlight.Render(s.Name()))
				printDetail("%dx%d, %.4gs per frame", s.Width(), s.Height(), s.FrameDuration())
				printNextStep("Add a layer", fmt.Sprintf("riglink scene add-layer %q <layer>", s.Name()))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&cfg.Width, "width", scene.DefaultWidth, "composition width")
	cmd.Flags().IntVar(&cfg.Height, "height", scene.DefaultHeight, "composition height")
	cmd.Flags().Float64Var(&fps, "fps", 0, "frame rate (default 30)")

	return cmd
}

// sceneListCommand creates the "scene list" subcommand.
func (c *CLI) sceneListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withWorkspace(ctx, func(ws *workspace) error {
				names, err := ws.scenes.Store.List(ctx)
				if err != nil {
					return err
				}
				if len(names) == 0 {
					printInfo("No scenes yet")
					printNextStep("Create one", "riglink scene create <scene>")
					return nil
				}
				rows := make([][]string, 0, len(names))
				for _, name := range names {
					rec, err := ws.scenes.Store.Get(ctx, name)
					if err != nil {
						return err
					}
					s, err := io.Unmarshal(rec.Data)
					if err != nil {
						return fmt.Errorf("decode scene %s: %w", name, err)
					}
					rows = append(rows, []string{
						name,
						strconv.Itoa(len(s.Layers())),
						strconv.Itoa(len(ws.runner.Registry.FindAll(s))),
						strconv.Itoa(len(s.Bindings())),
						strconv.Itoa(len(rec.History)),
						rec.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				printTable([]string{"Scene", "Layers", "Controllers", "Bindings", "Undo", "Updated"}, rows)
				return nil
			})
		},
	}
}

// sceneShowCommand creates the "scene show" subcommand.
func (c *CLI) sceneShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <scene>",
		Short: "Show a scene's layers and formulas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withWorkspace(ctx, func(ws *workspace) error {
				s, err := ws.scenes.Load(ctx, args[0])
				if err != nil {
					return err
				}
				steps, err := ws.scenes.Steps(ctx, args[0])
				if err != nil {
					return err
				}

				fmt.Fprintln(stdout, StyleTitle.Render(s.Name()))
				printKeyValue("Size", fmt.Sprintf("%dx%d", s.Width(), s.Height()))
				printKeyValue("Frame", fmt.Sprintf("%.4gs", s.FrameDuration()))
				printKeyValue("Bindings", strconv.Itoa(len(s.Bindings())))
				if len(steps) > 0 {
					printKeyValue("Undo", steps[len(steps)-1])
				}
				printNewline()

				if len(s.Layers()) == 0 {
					printInfo("No layers")
					return nil
				}
				printTable([]string{"#", "Layer", "Kind", "3D", "Sel", "Position", "Scale"}, layerRows(ws, s))
				return nil
			})
		},
	}
}

// layerRows renders one table row per layer. Bound slots show the
// controller name, unbound formula text shows as "expr".
func layerRows(ws *workspace, s *scene.Scene) [][]string {
	selected := make(map[string]bool)
	for _, l := range s.Selected() {
		selected[l.ID] = true
	}
	bound := make(map[string]map[scene.Slot]string)
	for _, b := range s.Bindings() {
		if bound[b.ConsumerID] == nil {
			bound[b.ConsumerID] = make(map[scene.Slot]string)
		}
		bound[b.ConsumerID][b.Slot] = b.ControllerName
	}

	rows := make([][]string, 0, len(s.Layers()))
	for _, l := range s.Layers() {
		name := l.Name
		if ws.runner.Registry.IsController(l) {
			name = StyleController.Render(l.Name)
		}
		sel, threeD := "", ""
		if selected[l.ID] {
			sel = iconSuccess
		}
		if l.ThreeD {
			threeD = iconSuccess
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Index(l.ID)),
			name,
			string(l.Kind),
			threeD,
			sel,
			slotCell(l, scene.SlotPosition, bound[l.ID]),
			slotCell(l, scene.SlotScale, bound[l.ID]),
		})
	}
	return rows
}

func slotCell(l *scene.Layer, slot scene.Slot, bound map[scene.Slot]string) string {
	if !l.HasSlot(slot) {
		return "—"
	}
	if ctrl, ok := bound[slot]; ok {
		return iconArrow + " " + ctrl
	}
	if l.Expression(slot) != "" {
		return "expr"
	}
	return formatVec(l.Value(slot))
}

func formatVec(v scene.Vec) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', 5, 64)
	}
	return strings.Join(parts, ", ")
}

// parseVec parses "x,y" or "x,y,z".
func parseVec(s string) (scene.Vec, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "want x,y or x,y,z, got %q", s)
	}
	v := make(scene.Vec, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid number %q", p)
		}
		v[i] = f
	}
	return v, nil
}

// sceneAddLayerCommand creates the "scene add-layer" subcommand.
func (c *CLI) sceneAddLayerCommand() *cobra.Command {
	var (
		kind     string
		threeD   bool
		position string
		label    int
	)

	cmd := &cobra.Command{
		Use:   "add-layer <scene> <layer>",
		Short: "Append a layer to a scene",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parseVec(position)
			if err != nil {
				return err
			}
			return c.withWorkspace(cmd.Context(), func(ws *workspace) error {
				var l *scene.Layer
				_, err := ws.update(cmd.Context(), args[0], "Add layer "+args[1], func(s *scene.Scene) error {
					var err error
					l, err = s.AddLayer(scene.LayerSpec{
						Name:     args[1],
						Kind:     scene.LayerKind(kind),
						ThreeD:   threeD,
						Position: pos,
						Label:    label,
					})
					return err
				})
				if err != nil {
					return err
				}
				printSuccess("Added layer %s", StyleHighlight.Render(l.Name))
				printDetail("id %s at %s", l.ID, formatVec(l.Position))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(scene.KindAV), "layer kind: av, null, camera, light")
	cmd.Flags().BoolVar(&threeD, "3d", false, "make the layer 3D")
	cmd.Flags().StringVar(&position, "position", "", "position as x,y or x,y,z (default composition center)")
	cmd.Flags().IntVar(&label, "label", 0, "colour label")

	return cmd
}

// sceneExportCommand creates the "scene export" subcommand.
func (c *CLI) sceneExportCommand() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "export <scene>",
		Short: "Write a scene document as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd.Context(), func(ws *workspace) error {
				s, err := ws.scenes.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if output == "" {
					return io.Write(s, stdout, io.Format(format))
				}
				if format != "" && io.Format(format) != io.FormatForPath(output) {
					return errors.New(errors.ErrCodeInvalidInput, "--format %s does not match %s", format, output)
				}
				if err := io.Export(s, output); err != nil {
					return err
				}
				printSuccess("Exported %s", s.Name())
				printFile(output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.json, .yaml); stdout if empty")
	cmd.Flags().StringVarP(&format, "format", "f", "", "stdout format: json (default), yaml")

	return cmd
}

// sceneImportCommand creates the "scene import" subcommand.
func (c *CLI) sceneImportCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a scene document",
		Long:  `Import reads a JSON or YAML scene document. An existing scene with the same name is only replaced with --force, and the replacement can be undone.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := io.Import(args[0])
			if err != nil {
				return err
			}
			return c.withWorkspace(ctx, func(ws *workspace) error {
				exists, err := ws.scenes.Exists(ctx, s.Name())
				if err != nil {
					return err
				}
				if exists && !force {
					return errors.New(errors.ErrCodeDuplicate, "scene %q already exists (use --force to replace it)", s.Name())
				}
				if _, err := ws.scenes.Save(ctx, s, "Import "+args[0]); err != nil {
					return err
				}
				printSuccess("Imported %s", StyleHighlight.Render(s.Name()))
				printDetail("%d layers, %d bindings", len(s.Layers()), len(s.Bindings()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace an existing scene")

	return cmd
}

// sceneUndoCommand creates the "scene undo" subcommand.
func (c *CLI) sceneUndoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "undo <scene>",
		Short: "Revert the most recent change to a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd.Context(), func(ws *workspace) error {
				s, step, err := ws.scenes.Undo(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printSuccess("Undid %s", StyleHighlight.Render(step))
				printDetail("%s now has %d layers", s.Name(), len(s.Layers()))
				return nil
			})
		},
	}
}

// sceneDeleteCommand creates the "scene delete" subcommand.
func (c *CLI) sceneDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <scene>",
		Short: "Delete a scene and its undo history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd.Context(), func(ws *workspace) error {
				if err := ws.scenes.Store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Deleted scene %s", args[0])
				return nil
			})
		},
	}
}
