package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"nvrgraph/internal/catalog"
	"nvrgraph/internal/device"
	"nvrgraph/internal/failures"
	"nvrgraph/internal/pipeline"
)

func newElementsCommand(ctx *commandContext) *cobra.Command {
	var refresh bool
	var showAll bool
	var deviceFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "elements",
		Short: "List installed elements and the stage chosen for each role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := commandCtx(cmd)

			devValue := cfg.Detection.Device
			if cmd.Flags().Changed("device") {
				devValue = deviceFlag
			}
			dev, err := device.Parse(devValue)
			if err != nil {
				return failures.Wrap(failures.ErrValidation, "elements", "--device", "", err)
			}

			cat, err := ctx.loadCatalog(runCtx, cfg, refresh)
			if err != nil {
				return err
			}

			listed := cat.Elements()
			if !showAll {
				listed = relevantElements(cat)
			}
			roles := resolveRoles(dev, cat)

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, struct {
					Device   string            `json:"device"`
					Elements []catalog.Element `json:"elements"`
					Roles    []roleResolution  `json:"roles"`
				}{Device: dev.String(), Elements: listed, Roles: roles})
			}

			rows := make([][]string, 0, len(listed))
			for _, el := range listed {
				rows = append(rows, []string{el.Name, el.Kind, el.Description})
			}
			title := fmt.Sprintf("Installed elements (%d of %d)", len(listed), cat.Len())
			fmt.Fprintln(out, renderTable(title, []string{"Element", "Plugin", "Description"}, rows, nil))

			titler := cases.Title(language.English)
			roleRows := make([][]string, 0, len(roles))
			for _, r := range roles {
				selected := r.Fragment
				if selected == "" {
					selected = "unavailable (tried " + strings.Join(r.Candidates, ", ") + ")"
				}
				roleRows = append(roleRows, []string{titler.String(r.Role), selected})
			}
			fmt.Fprintln(out, renderTable("Stages for "+dev.String(), []string{"Role", "Selected"}, roleRows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached element catalog")
	cmd.Flags().BoolVar(&showAll, "all", false, "List every installed element, not only pipeline candidates")
	cmd.Flags().StringVar(&deviceFlag, "device", "", "Resolve stages for this device instead of detection.device")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print elements and stages as JSON")
	return cmd
}

type roleResolution struct {
	Role       string   `json:"role"`
	Fragment   string   `json:"fragment,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

func relevantElements(cat *catalog.Catalog) []catalog.Element {
	candidates := pipeline.CandidateElements()
	var out []catalog.Element
	for _, el := range cat.Elements() {
		if slices.Contains(candidates, el.Name) {
			out = append(out, el)
		}
	}
	return out
}

// resolveRoles reports every role, recording the candidates tried when a role
// cannot be filled instead of failing the listing.
func resolveRoles(dev device.Spec, cat *catalog.Catalog) []roleResolution {
	out := make([]roleResolution, 0, len(pipeline.Roles))
	for _, role := range pipeline.Roles {
		entry := roleResolution{Role: string(role)}
		frag, err := pipeline.Resolve(role, dev, cat)
		var unresolved *pipeline.UnresolvedRoleError
		switch {
		case err == nil:
			entry.Fragment = frag.String()
		case errors.As(err, &unresolved):
			entry.Candidates = unresolved.Candidates
		default:
			entry.Candidates = []string{err.Error()}
		}
		out = append(out, entry)
	}
	return out
}
