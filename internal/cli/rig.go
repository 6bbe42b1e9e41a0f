package cli

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/riglink/pkg/cleanup"
	"github.com/matzehuels/riglink/pkg/controller"
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/rig"
	"github.com/matzehuels/riglink/pkg/scene"
)

// =============================================================================
// Controllers
// =============================================================================

// controllerCommand creates the controller management command.
func (c *CLI) controllerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "controller",
		Aliases: []string{"ctrl"},
		Short:   "Create and list controller layers",
	}

	cmd.AddCommand(c.controllerCreateCommand())
	cmd.AddCommand(c.controllerListCommand())

	return cmd
}

// controllerCreateCommand creates the "controller create" subcommand.
func (c *CLI) controllerCreateCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "create <scene>",
		Short: "Create a controller, or repair the shared one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withWorkspace(ctx, func(ws *workspace) error {
				var ctrl *rig.Controller
				_, err := ws.update(ctx, args[0], fmt.Sprintf("Create %s controller", kind), func(s *scene.Scene) error {
					var err error
					ctrl, err = ws.runner.CreateController(ctx, s, kind)
					return err
				})
				if err != nil {
					return err
				}
				if ctrl.Created {
					printSuccess("Created %s controller %s", ctrl.Kind, StyleController.Render(ctrl.Name))
				} else {
					printInfo("Reusing %s controller %s", ctrl.Kind, StyleController.Render(ctrl.Name))
				}
				for _, name := range sortedKeys(ctrl.Params) {
					printDetail("%s = %s", name, formatVec(ctrl.Params[name]))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", controller.Circular.Name, "controller kind: "+strings.Join(controller.KindNames(), ", "))
	_ = cmd.RegisterFlagCompletionFunc("kind", kindCompletion)

	return cmd
}

// controllerListCommand creates the "controller list" subcommand.
func (c *CLI) controllerListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <scene>",
		Short: "List controllers with their bound-layer counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withWorkspace(ctx, func(ws *workspace) error {
				s, err := ws.scenes.Load(ctx, args[0])
				if err != nil {
					return err
				}
				infos, err := ws.runner.ListControllers(ctx, s)
				if err != nil {
					return err
				}
				if len(infos) == 0 {
					printInfo("No controllers in %s", s.Name())
					printNextStep("Create one", fmt.Sprintf("riglink controller create %q --kind circular", s.Name()))
					return nil
				}
				rows := make([][]string, len(infos))
				for i, info := range infos {
					rows[i] = []string{info.Label, strconv.Itoa(info.Bound), formatParams(info.Params)}
				}
				printTable([]string{"Controller", "Bound", "Params"}, rows)
				return nil
			})
		},
	}
}

func kindCompletion(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return controller.KindNames(), cobra.ShellCompDirectiveNoFileComp
}

func formatParams(p map[string]scene.Vec) string {
	parts := make([]string, 0, len(p))
	for _, name := range sortedKeys(p) {
		parts = append(parts, name+"="+formatVec(p[name]))
	}
	return strings.Join(parts, "; ")
}

// =============================================================================
// Selection and Binding
// =============================================================================

// selectCommand creates the select command.
func (c *CLI) selectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "select <scene> [layer...]",
		Short: "Replace the selection; no layers clears it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withWorkspace(ctx, func(ws *workspace) error {
				s, err := ws.update(ctx, args[0], "", func(s *scene.Scene) error {
					return selectLayers(s, args[1:])
				})
				if err != nil {
					return err
				}
				names := make([]string, 0, len(args)-1)
				for _, l := range s.Selected() {
					names = append(names, l.Name)
				}
				if len(names) == 0 {
					printInfo("Selection cleared")
					return nil
				}
				printSuccess("Selected %s", strings.Join(names, ", "))
				return nil
			})
		},
	}
}

// selectLayers selects layers by ID or name.
func selectLayers(s *scene.Scene, refs []string) error {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		l, ok := s.LayerByID(ref)
		if !ok {
			l, ok = s.LayerByName(ref)
		}
		if !ok {
			return errors.New(errors.ErrCodeLayerNotFound, "layer %q not found", ref)
		}
		ids = append(ids, l.ID)
	}
	return s.Select(ids...)
}

// bindCommand creates the bind command.
func (c *CLI) bindCommand() *cobra.Command {
	var (
		req    rig.ApplyRequest
		layers []string
		guard  bool
	)

	cmd := &cobra.Command{
		Use:   "bind <scene>",
		Short: "Bind the selected layers to a controller",
		Long: `Bind writes formulas that drive the selected layers from a controller.

Circular controllers are picked by --controller (a name or a "Name (N layers)"
label) and default to the oldest circular controller. Grid and Y-driven
bindings share the controller named after the prefix and create it on demand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("guard") {
				req.Guard = &guard
			}
			ctx := cmd.Context()
			return c.withWorkspace(ctx, func(ws *workspace) error {
				var res *rig.ApplyResult
				_, err := ws.update(ctx, args[0], fmt.Sprintf("Apply %s formulas", req.Kind), func(s *scene.Scene) error {
					if len(layers) > 0 {
						if err := selectLayers(s, layers); err != nil {
							return err
						}
					}
					var err error
					res, err = ws.runner.ApplyBinding(ctx, s, req)
					return err
				})
				if err != nil {
					return err
				}
				printSuccess("Bound %d layers to %s", res.Applied, StyleController.Render(res.Controller))
				if res.Skipped > 0 {
					printDetail("%d skipped", res.Skipped)
				}
				printFailures(res.FailureMessages())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&req.Kind, "kind", "k", controller.Circular.Name, "controller kind: "+strings.Join(controller.KindNames(), ", "))
	cmd.Flags().StringVarP(&req.Controller, "controller", "c", "", "controller name or label")
	cmd.Flags().Float64Var(&req.OffsetFrames, "offset", 0, "delay in frames (ydriven)")
	cmd.Flags().BoolVar(&guard, "guard", false, "keep the layer's own value when the controller is deleted")
	cmd.Flags().StringSliceVarP(&layers, "layers", "l", nil, "select these layers first (comma-separated)")
	_ = cmd.RegisterFlagCompletionFunc("kind", kindCompletion)

	return cmd
}

// =============================================================================
// Formulas, Recovery and Cleanup
// =============================================================================

// formulaCommand creates the formula command.
func (c *CLI) formulaCommand() *cobra.Command {
	var t float64

	cmd := &cobra.Command{
		Use:   "formula <scene> <layer>",
		Short: "Show a layer's formulas and their values at a time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withWorkspace(ctx, func(ws *workspace) error {
				s, err := ws.scenes.Load(ctx, args[0])
				if err != nil {
					return err
				}
				slots, err := ws.runner.Formulas(ctx, s, args[1], t)
				if err != nil {
					return err
				}
				for _, sf := range slots {
					fmt.Fprintln(stdout, StyleTitle.Render(string(sf.Slot)))
					if sf.Text == "" {
						printDetail("no formula")
						continue
					}
					if sf.Binding != nil {
						printKeyValue("Controller", sf.Binding.ControllerName)
						printKeyValue("Formula", sf.Binding.Formula)
						if sf.Binding.OffsetSeconds != 0 {
							printKeyValue("Offset", fmt.Sprintf("%gs", sf.Binding.OffsetSeconds))
						}
					}
					if sf.Error != "" {
						printWarning("%s", sf.Error)
					} else if sf.Value != nil {
						printKeyValue(fmt.Sprintf("t=%gs", t), formatVec(sf.Value))
					}
					printNewline()
					fmt.Fprintln(stdout, StyleDim.Render(sf.Text))
					printNewline()
				}
				return nil
			})
		},
	}

	cmd.Flags().Float64VarP(&t, "time", "t", 0, "evaluation time in seconds")

	return cmd
}

// recoverCommand creates the recover command.
func (c *CLI) recoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recover <scene>",
		Short: "Rebuild binding records from existing formula text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withWorkspace(ctx, func(ws *workspace) error {
				var n int
				_, err := ws.update(ctx, args[0], "Recover bindings", func(s *scene.Scene) error {
					var err error
					n, err = ws.runner.Recover(ctx, s)
					return err
				})
				if err != nil {
					return err
				}
				if n == 0 {
					printInfo("Nothing to recover")
					return nil
				}
				printSuccess("Recovered %d bindings", n)
				return nil
			})
		},
	}
}

// cleanupCommand creates the cleanup command.
func (c *CLI) cleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup <scene>",
		Short: "Remove every controller and clear the formulas they drive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withWorkspace(ctx, func(ws *workspace) error {
				var rep *cleanup.Report
				_, err := ws.update(ctx, args[0], "Clean up all controllers", func(s *scene.Scene) error {
					var err error
					rep, err = ws.runner.Cleanup(ctx, s)
					return err
				})
				if err != nil {
					return err
				}
				printSuccess("Cleaned %d layers, deleted %d controllers", rep.Cleaned, rep.Deleted)
				for _, f := range rep.FailureMessages() {
					printError("%s", f)
				}
				if rep.Cleaned+rep.Deleted > 0 {
					printNextStep("Revert", fmt.Sprintf("riglink scene undo %q", args[0]))
				}
				return nil
			})
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
