package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"animexport/internal/compat"
	"animexport/internal/tagcode"
)

func newTagsCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string
	var levelFlag int
	var deniedOnly bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List feature tags and whether the configured level permits them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			param := cfg.ExportParam()
			mode, err := compat.ModeOf(param)
			if err != nil {
				return err
			}
			if strings.TrimSpace(modeFlag) != "" {
				level := levelFlag
				if level == 0 {
					level = param.TagLevel
				}
				if mode, err = compat.ParseMode(modeFlag, level); err != nil {
					return err
				}
			}
			gate, err := compat.NewGate(mode)
			if err != nil {
				return err
			}

			rows := [][]string{}
			for _, tag := range tagcode.All() {
				allowed := gate.Allows(tag)
				if deniedOnly && allowed {
					continue
				}
				fallback := ""
				if !allowed {
					if d := gate.Resolve(tag); d.Emit {
						fallback = d.Tag.String()
					}
				}
				rows = append(rows, []string{fmt.Sprint(uint16(tag)), tag.String(), yesNo(allowed), fallback})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tag mode %s, level %d\n", mode, gate.Level())
			fmt.Fprintln(out, renderTable([]column{col("Code").right(), col("Tag"), col("Allowed"), col("Fallback")}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", "", "Inspect a different tag mode (stable, beta, custom)")
	cmd.Flags().IntVar(&levelFlag, "level", 0, "Tag level for --mode custom")
	cmd.Flags().BoolVar(&deniedOnly, "denied", false, "Only list tags the level does not permit")
	return cmd
}
